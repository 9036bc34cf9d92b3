// Package cleanup reports a deletion plan and carries it out.
package cleanup

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/rodaine/table"
	"github.com/sirupsen/logrus"

	"github.com/samiksome92/dedup/internal/dup"
)

// TimeFormat is the layout used for modification times in reports.
const TimeFormat = "2006-01-02 15:04:05"

// DeletionError is returned when a candidate could not be removed.
type DeletionError struct {
	Path string
	Err  error
}

// Error names the file that could not be removed.
func (e *DeletionError) Error() string {
	return fmt.Sprintf("deleting `%s`: %v", e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *DeletionError) Unwrap() error {
	return e.Err
}

// Result summarises an execution.
type Result struct {
	Deleted  []string
	Declined []string
	Failed   []error

	// Reclaimed is the number of bytes freed by Deleted.
	Reclaimed int64
}

// Executor prints a plan and removes its candidates.
type Executor struct {
	Out io.Writer

	// DryRun reports the plan without touching the filesystem.
	DryRun bool

	// Confirm is asked before each removal. Nil removes without asking.
	Confirm Confirmer

	// Remove deletes a file. Defaults to os.Remove.
	Remove func(path string) error

	Log logrus.FieldLogger
}

var (
	bold   = color.New(color.Bold)
	header = color.New(color.Italic).Add(color.Underline).SprintfFunc()
	red    = color.New(color.FgRed)
	green  = color.New(color.FgGreen)
)

// Report prints one plan entry: the whole group, then what will be deleted.
func (e *Executor) Report(policy dup.Policy, entry *dup.Entry) {
	bold.Fprintf(e.Out, "\nDuplicates (%s):\n", entry.Digest.Short())

	tbl := table.New("File", "Modified", "Age", "Size", "Action").WithWriter(e.Out)
	tbl.WithHeaderFormatter(header)
	for _, record := range entry.Members {
		action := "delete"
		if record.Path == entry.Keep.Path {
			action = "keep"
		}
		tbl.AddRow(
			record.Path,
			record.ModTime.Format(TimeFormat),
			humanize.Time(record.ModTime),
			humanize.Bytes(uint64(record.Size)),
			action,
		)
	}
	tbl.Print()

	fmt.Fprintf(e.Out, "\nTo delete (%s):\n", policy.Describe())
	for _, record := range entry.Delete {
		fmt.Fprintln(e.Out, record.Path)
	}
	fmt.Fprintln(e.Out)
}

// Execute reports every entry of plan and removes its candidates. A failed
// removal is recorded and the remaining candidates are still processed. Only
// a failing Confirmer aborts.
func (e *Executor) Execute(plan *dup.Plan) (Result, error) {
	remove := e.Remove
	if remove == nil {
		remove = os.Remove
	}
	log := e.Log
	if log == nil {
		log = discard
	}

	var result Result
	for i := range plan.Entries {
		entry := &plan.Entries[i]
		e.Report(plan.Policy, entry)

		for _, record := range entry.Delete {
			fmt.Fprintf(e.Out, "rm %s\n", record.Path)
			if e.DryRun {
				continue
			}

			if e.Confirm != nil {
				ok, err := e.Confirm.Confirm(record.Path)
				if err != nil {
					return result, err
				}
				if !ok {
					log.WithField("path", record.Path).Debug("deletion declined")
					result.Declined = append(result.Declined, record.Path)
					continue
				}
			}

			if err := remove(record.Path); err != nil {
				err = &DeletionError{Path: record.Path, Err: err}
				log.WithError(err).Error("failed to delete duplicate")
				result.Failed = append(result.Failed, err)
				continue
			}
			log.WithField("path", record.Path).Debug("deleted duplicate")
			result.Deleted = append(result.Deleted, record.Path)
			result.Reclaimed += record.Size
		}
	}

	e.Summarize(plan, &result)
	return result, nil
}

// Summarize prints the closing line of a run.
func (e *Executor) Summarize(plan *dup.Plan, result *Result) {
	if len(plan.Entries) == 0 {
		green.Fprintln(e.Out, "No duplicate files found.")
		return
	}

	if e.DryRun {
		bold.Fprintf(
			e.Out,
			"Dry run: %d duplicate files in %d groups, %s reclaimable.\n",
			plan.Candidates(),
			len(plan.Entries),
			humanize.Bytes(uint64(plan.Reclaimable())),
		)
		return
	}

	bold.Fprintf(
		e.Out,
		"Deleted %d of %d duplicate files, %s reclaimed.\n",
		len(result.Deleted),
		plan.Candidates(),
		humanize.Bytes(uint64(result.Reclaimed)),
	)
	if len(result.Failed) > 0 {
		red.Fprintf(e.Out, "%d deletions failed.\n", len(result.Failed))
	}
}

var discard = func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}()
