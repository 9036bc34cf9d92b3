package dup

import "time"

// FileRecord is a file found during a scan.
type FileRecord struct {
	// Path identifies the file within a scan.
	Path string

	// ModTime is the file's modification time, read once at scan time.
	ModTime time.Time

	// Size is the file's size in bytes. It is only used for reporting.
	Size int64
}

// Group is a set of files sharing a digest, in insertion order.
type Group struct {
	Digest  Digest
	Records []FileRecord
}

// Actionable reports whether the group holds at least two files.
func (g *Group) Actionable() bool {
	return len(g.Records) >= 2
}

// Grouper accumulates records by digest for a single run.
type Grouper struct {
	index  map[Digest]int
	groups []Group
}

// NewGrouper returns an empty Grouper.
func NewGrouper() *Grouper {
	return &Grouper{index: make(map[Digest]int)}
}

// Add appends record to the group for digest, creating the group on first
// sight.
func (g *Grouper) Add(record FileRecord, digest Digest) {
	i, exists := g.index[digest]
	if !exists {
		i = len(g.groups)
		g.index[digest] = i
		g.groups = append(g.groups, Group{Digest: digest})
	}
	g.groups[i].Records = append(g.groups[i].Records, record)
}

// Groups returns every group, including single-member ones, in the order
// their digests were first seen.
func (g *Grouper) Groups() []Group {
	return g.groups
}
