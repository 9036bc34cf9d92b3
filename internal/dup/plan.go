package dup

import (
	"fmt"
	"io"
	"slices"

	"github.com/sirupsen/logrus"
)

// Entry is the decision for one actionable group.
type Entry struct {
	Digest Digest

	// Members are the group's files in insertion order.
	Members []FileRecord

	// Keep is the survivor.
	Keep FileRecord

	// Delete holds every other member, oldest first.
	Delete []FileRecord
}

// Plan is the full set of decisions for one run.
type Plan struct {
	Policy  Policy
	Entries []Entry

	// Skipped holds fingerprint failures tolerated under SkipUnreadable.
	Skipped []error
}

// Candidates returns the number of files marked for deletion.
func (p *Plan) Candidates() (n int) {
	for i := range p.Entries {
		n += len(p.Entries[i].Delete)
	}
	return
}

// Reclaimable returns the bytes freed if every candidate is deleted.
func (p *Plan) Reclaimable() (n int64) {
	for i := range p.Entries {
		for _, record := range p.Entries[i].Delete {
			n += record.Size
		}
	}
	return
}

// NewPlan selects a survivor in every actionable group. Members are ordered
// by modification time with ties kept in insertion order. Single-member
// groups produce no entry. NewPlan panics on a policy other than DeleteOld
// or DeleteNew; use Validate first for untrusted values.
func NewPlan(groups []Group, policy Policy) Plan {
	keep, ok := survivor[policy]
	if !ok {
		panic(fmt.Sprintf("unknown policy %d", int(policy)))
	}

	plan := Plan{Policy: policy}
	for i := range groups {
		if !groups[i].Actionable() {
			continue
		}

		sorted := slices.Clone(groups[i].Records)
		slices.SortStableFunc(sorted, func(l, r FileRecord) int {
			return l.ModTime.Compare(r.ModTime)
		})

		k := keep(len(sorted))
		entry := Entry{
			Digest:  groups[i].Digest,
			Members: groups[i].Records,
			Keep:    sorted[k],
			Delete:  make([]FileRecord, 0, len(sorted)-1),
		}
		entry.Delete = append(entry.Delete, sorted[:k]...)
		entry.Delete = append(entry.Delete, sorted[k+1:]...)
		plan.Entries = append(plan.Entries, entry)
	}
	return plan
}

// Hasher computes a file's digest.
type Hasher func(path string) (Digest, error)

// FailureMode decides what a fingerprint failure does to the run.
type FailureMode int

const (
	// FailFast aborts the run on the first unreadable file.
	FailFast FailureMode = iota

	// SkipUnreadable leaves the file out of the plan and continues.
	SkipUnreadable
)

// Planner fingerprints and groups records, then builds a plan.
type Planner struct {
	Hash    Hasher
	Policy  Policy
	Failure FailureMode
	Log     logrus.FieldLogger
}

// BuildPlan builds a plan with the default planner: files are fingerprinted
// from disk and the first failure aborts.
func BuildPlan(records []FileRecord, policy Policy) (Plan, error) {
	return Planner{Policy: policy}.Build(records)
}

// Build fingerprints records in order and returns the resulting plan.
func (p Planner) Build(records []FileRecord) (Plan, error) {
	if err := p.Policy.Validate(); err != nil {
		return Plan{}, err
	}

	hash := p.Hash
	if hash == nil {
		hash = Fingerprint
	}
	log := p.Log
	if log == nil {
		log = discard
	}

	grouper := NewGrouper()
	var skipped []error
	for _, record := range records {
		log.WithField("path", record.Path).Debug("fingerprinting file")
		digest, err := hash(record.Path)
		if err != nil {
			if p.Failure == FailFast {
				return Plan{}, fmt.Errorf("fingerprinting files: %w", err)
			}
			log.WithError(err).
				WithField("path", record.Path).
				Warn("skipping unreadable file")
			skipped = append(skipped, err)
			continue
		}
		grouper.Add(record, digest)
	}

	plan := NewPlan(grouper.Groups(), p.Policy)
	plan.Skipped = skipped
	log.WithFields(logrus.Fields{
		"files":      len(records),
		"groups":     len(plan.Entries),
		"candidates": plan.Candidates(),
		"skipped":    len(skipped),
	}).Debug("built deletion plan")
	return plan, nil
}

var discard = func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}()
