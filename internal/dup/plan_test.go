package dup

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func at(sec int64) time.Time {
	return time.Unix(sec, 0)
}

func digestOf(b byte) Digest {
	var d Digest
	d[0] = b
	return d
}

// fakeHasher maps paths to digests without touching the filesystem.
func fakeHasher(digests map[string]Digest, failing ...string) Hasher {
	return func(path string) (Digest, error) {
		for _, f := range failing {
			if f == path {
				return Digest{}, &IOError{Path: path, Op: "opening", Err: errors.New("permission denied")}
			}
		}
		return digests[path], nil
	}
}

func paths(records []FileRecord) []string {
	out := make([]string, len(records))
	for i := range records {
		out[i] = records[i].Path
	}
	return out
}

func TestNewPlanPolicy(t *testing.T) {
	abc := []FileRecord{
		{Path: "A", ModTime: at(1)},
		{Path: "B", ModTime: at(2)},
		{Path: "C", ModTime: at(3)},
	}
	testCases := []struct {
		name          string
		records       []FileRecord
		policy        Policy
		wantedKeep    string
		wantedDeleted []string
	}{
		{
			name:          "old-keeps-newest",
			records:       abc,
			policy:        DeleteOld,
			wantedKeep:    "C",
			wantedDeleted: []string{"A", "B"},
		},
		{
			name:          "new-keeps-oldest",
			records:       abc,
			policy:        DeleteNew,
			wantedKeep:    "A",
			wantedDeleted: []string{"B", "C"},
		},
		{
			name: "old-unsorted-insertion",
			records: []FileRecord{
				{Path: "C", ModTime: at(3)},
				{Path: "A", ModTime: at(1)},
				{Path: "B", ModTime: at(2)},
			},
			policy:        DeleteOld,
			wantedKeep:    "C",
			wantedDeleted: []string{"A", "B"},
		},
		{
			name: "old-tie-keeps-last-inserted",
			records: []FileRecord{
				{Path: "X", ModTime: at(5)},
				{Path: "Y", ModTime: at(5)},
				{Path: "Z", ModTime: at(5)},
			},
			policy:        DeleteOld,
			wantedKeep:    "Z",
			wantedDeleted: []string{"X", "Y"},
		},
		{
			name: "new-tie-keeps-first-inserted",
			records: []FileRecord{
				{Path: "X", ModTime: at(5)},
				{Path: "Y", ModTime: at(5)},
				{Path: "Z", ModTime: at(5)},
			},
			policy:        DeleteNew,
			wantedKeep:    "X",
			wantedDeleted: []string{"Y", "Z"},
		},
		{
			name: "pair",
			records: []FileRecord{
				{Path: "b.txt", ModTime: at(200)},
				{Path: "a.txt", ModTime: at(100)},
			},
			policy:        DeleteNew,
			wantedKeep:    "a.txt",
			wantedDeleted: []string{"b.txt"},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			group := Group{Digest: digestOf(1), Records: testCase.records}
			plan := NewPlan([]Group{group}, testCase.policy)
			if len(plan.Entries) != 1 {
				t.Fatalf("wanted 1 entry; found %d", len(plan.Entries))
			}
			entry := plan.Entries[0]
			if entry.Keep.Path != testCase.wantedKeep {
				t.Fatalf("wanted keep `%s`; found `%s`", testCase.wantedKeep, entry.Keep.Path)
			}
			if found := paths(entry.Delete); !reflect.DeepEqual(found, testCase.wantedDeleted) {
				t.Fatalf("wanted delete %v; found %v", testCase.wantedDeleted, found)
			}
			if found, wanted := paths(entry.Members), paths(testCase.records); !reflect.DeepEqual(found, wanted) {
				t.Fatalf("wanted members in insertion order %v; found %v", wanted, found)
			}
		})
	}
}

func TestNewPlanSkipsSingletons(t *testing.T) {
	groups := []Group{
		{Digest: digestOf(1), Records: []FileRecord{{Path: "lonely"}}},
		{Digest: digestOf(2), Records: []FileRecord{{Path: "a", ModTime: at(1)}, {Path: "b", ModTime: at(2)}}},
		{Digest: digestOf(3)},
	}
	plan := NewPlan(groups, DeleteOld)
	if len(plan.Entries) != 1 {
		t.Fatalf("wanted 1 entry; found %d", len(plan.Entries))
	}
	if plan.Entries[0].Digest != digestOf(2) {
		t.Fatalf("wanted entry for digest %s; found %s", digestOf(2), plan.Entries[0].Digest)
	}
}

func TestGrouperPartition(t *testing.T) {
	records := []FileRecord{
		{Path: "a"}, {Path: "b"}, {Path: "c"}, {Path: "d"}, {Path: "e"},
	}
	digests := map[string]Digest{
		"a": digestOf(1),
		"b": digestOf(2),
		"c": digestOf(1),
		"d": digestOf(3),
		"e": digestOf(2),
	}

	grouper := NewGrouper()
	for _, record := range records {
		grouper.Add(record, digests[record.Path])
	}

	wanted := [][]string{{"a", "c"}, {"b", "e"}, {"d"}}
	groups := grouper.Groups()
	if len(groups) != len(wanted) {
		t.Fatalf("wanted %d groups; found %d", len(wanted), len(groups))
	}

	seen := map[string]int{}
	for i := range groups {
		if found := paths(groups[i].Records); !reflect.DeepEqual(found, wanted[i]) {
			t.Fatalf("group %d: wanted %v; found %v", i, wanted[i], found)
		}
		for _, record := range groups[i].Records {
			seen[record.Path]++
			if digests[record.Path] != groups[i].Digest {
				t.Fatalf("record `%s` grouped under wrong digest", record.Path)
			}
		}
	}
	for _, record := range records {
		if seen[record.Path] != 1 {
			t.Fatalf("record `%s` appears %d times", record.Path, seen[record.Path])
		}
	}
}

func TestPlannerBuild(t *testing.T) {
	records := []FileRecord{
		{Path: "a.txt", ModTime: at(100), Size: 5},
		{Path: "b.txt", ModTime: at(200), Size: 5},
		{Path: "c.txt", ModTime: at(150), Size: 5},
		{Path: "d.txt", ModTime: at(50), Size: 5},
	}
	digests := map[string]Digest{
		"a.txt": digestOf(1),
		"b.txt": digestOf(1),
		"c.txt": digestOf(2),
		"d.txt": digestOf(1),
	}
	planner := Planner{Hash: fakeHasher(digests), Policy: DeleteOld}

	plan, err := planner.Build(records)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(plan.Entries) != 1 {
		t.Fatalf("wanted 1 entry; found %d", len(plan.Entries))
	}
	if plan.Entries[0].Keep.Path != "b.txt" {
		t.Fatalf("wanted keep `b.txt`; found `%s`", plan.Entries[0].Keep.Path)
	}
	if found := paths(plan.Entries[0].Delete); !reflect.DeepEqual(found, []string{"d.txt", "a.txt"}) {
		t.Fatalf("wanted delete [d.txt a.txt]; found %v", found)
	}
	if plan.Candidates() != 2 || plan.Reclaimable() != 10 {
		t.Fatalf("wanted 2 candidates / 10 bytes; found %d / %d", plan.Candidates(), plan.Reclaimable())
	}

	again, err := planner.Build(records)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !reflect.DeepEqual(plan, again) {
		t.Fatalf("plans differ between runs:\n%+v\n%+v", plan, again)
	}
}

func TestPlannerFailureModes(t *testing.T) {
	records := []FileRecord{
		{Path: "a", ModTime: at(1)},
		{Path: "locked", ModTime: at(2)},
		{Path: "b", ModTime: at(3)},
	}
	digests := map[string]Digest{"a": digestOf(1), "b": digestOf(1)}

	t.Run("fail-fast", func(t *testing.T) {
		planner := Planner{Hash: fakeHasher(digests, "locked")}
		_, err := planner.Build(records)
		var ioErr *IOError
		if !errors.As(err, &ioErr) || ioErr.Path != "locked" {
			t.Fatalf("wanted *IOError for `locked`; found `%v`", err)
		}
	})

	t.Run("skip-unreadable", func(t *testing.T) {
		planner := Planner{Hash: fakeHasher(digests, "locked"), Failure: SkipUnreadable}
		plan, err := planner.Build(records)
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
		if len(plan.Skipped) != 1 {
			t.Fatalf("wanted 1 skipped file; found %d", len(plan.Skipped))
		}
		if len(plan.Entries) != 1 || plan.Entries[0].Keep.Path != "b" {
			t.Fatalf("wanted one entry keeping `b`; found %+v", plan.Entries)
		}
	})
}

func TestBuildPlanFromDisk(t *testing.T) {
	dir := t.TempDir()
	var records []FileRecord
	for i, f := range []struct{ name, data string }{
		{"one", "same"},
		{"two", "same"},
		{"three", "other"},
	} {
		path := dir + "/" + f.name
		writeFile(t, path, f.data)
		records = append(records, FileRecord{Path: path, ModTime: at(int64(i))})
	}

	plan, err := BuildPlan(records, DeleteNew)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(plan.Entries) != 1 {
		t.Fatalf("wanted 1 entry; found %d", len(plan.Entries))
	}
	if plan.Entries[0].Keep.Path != records[0].Path {
		t.Fatalf("wanted keep `%s`; found `%s`", records[0].Path, plan.Entries[0].Keep.Path)
	}
}

func TestParsePolicy(t *testing.T) {
	for _, testCase := range []struct {
		input  string
		wanted Policy
		err    bool
	}{
		{input: "old", wanted: DeleteOld},
		{input: "new", wanted: DeleteNew},
		{input: "newest", err: true},
		{input: "", err: true},
	} {
		found, err := ParsePolicy(testCase.input)
		if testCase.err {
			if err == nil {
				t.Fatalf("%q: wanted error", testCase.input)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: unexpected err: %v", testCase.input, err)
		}
		if found != testCase.wanted || found.String() != testCase.input {
			t.Fatalf("%q: found %v", testCase.input, found)
		}
	}

	var p Policy
	if p != DeleteOld {
		t.Fatal("wanted zero policy to be DeleteOld")
	}
	if err := p.Set("new"); err != nil || p != DeleteNew {
		t.Fatalf("Set(new): policy=%v err=%v", p, err)
	}
}

func TestUnknownPolicy(t *testing.T) {
	bogus := Policy(7)
	records := []FileRecord{{Path: "a"}, {Path: "b"}}

	planner := Planner{Hash: fakeHasher(map[string]Digest{}), Policy: bogus}
	if _, err := planner.Build(records); err == nil {
		t.Fatal("wanted error for unknown policy")
	}
	if err := DeleteNew.Validate(); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Fatal("wanted NewPlan to panic on unknown policy")
		}
	}()
	NewPlan([]Group{{Records: records}}, bogus)
}
