// Package queue publishes build jobs to the shared queue directory polled
// by the build farm, and runs local test builds.
package queue

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	oerrors "github.com/modrel/cli/internal/errors"
	"github.com/modrel/cli/internal/output"
	"github.com/modrel/cli/internal/script"
)

// TimestampFormat is the job name timestamp layout, to the second.
const TimestampFormat = "20060102-150405"

// Job is a rendered script ready for submission.
type Job struct {
	// Name is the queue file name, see Name.
	Name string

	// Script is the complete script text.
	Script string

	// Params are the values the script was rendered with.
	Params script.Params
}

// EntryID identifies a published queue entry. It is the file name.
type EntryID string

// Name returns the queue file name for a job:
// {kind}_{timestamp}_{requester}_{area}_{module}_{version}.{ext}
// where slashes in the module path are flattened to underscores.
func Name(p script.Params, ext string) string {
	return fmt.Sprintf("%s_%s_%s_%s_%s_%s.%s",
		p.Kind,
		p.Timestamp.Format(TimestampFormat),
		p.User,
		p.Area,
		flatten(p.Module),
		p.Version,
		ext,
	)
}

func flatten(module string) string {
	return strings.NewReplacer("/", "_", `\`, "_").Replace(strings.Trim(module, `/\`))
}

// Writer submits jobs to a queue directory. Entries are write-once: a
// submission never replaces an existing file and is never partially visible.
type Writer struct {
	dir      string
	auditLog string
}

// NewWriter creates a writer for dir. auditLog is the per-user log that
// records every submission; empty disables it.
func NewWriter(dir, auditLog string) *Writer {
	return &Writer{dir: dir, auditLog: auditLog}
}

// Dir returns the queue directory.
func (w *Writer) Dir() string {
	return w.dir
}

// Submit publishes job under job.Name. It fails with a submission error if
// an entry of that name already exists or the directory is unwritable.
func (w *Writer) Submit(job Job) (EntryID, error) {
	if err := validateName(job.Name); err != nil {
		return "", oerrors.NewSubmissionError(err.Error(), w.dir, nil)
	}

	final := filepath.Join(w.dir, job.Name)
	if err := w.publish(final, []byte(job.Script)); err != nil {
		return "", err
	}
	output.Debug("queue entry published", "path", final)

	if w.auditLog != "" {
		if err := appendAudit(w.auditLog, job); err != nil {
			output.Warn("could not record submission in audit log", "path", w.auditLog, "err", err)
		}
	}
	return EntryID(job.Name), nil
}

// publish stages content in a hidden file and hard-links it into place.
// Link fails if the destination exists, so concurrent writers can never
// overwrite each other and the consumer never sees a partial file.
func (w *Writer) publish(final string, content []byte) error {
	staging := filepath.Join(w.dir, "."+uuid.NewString()+".tmp")

	f, err := os.OpenFile(staging, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o664)
	if err != nil {
		return oerrors.NewSubmissionError("cannot write to queue directory", w.dir, err)
	}
	defer os.Remove(staging)

	if _, err := f.Write(content); err != nil {
		f.Close()
		return oerrors.NewSubmissionError("writing queue entry", staging, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return oerrors.NewSubmissionError("writing queue entry", staging, err)
	}
	if err := f.Close(); err != nil {
		return oerrors.NewSubmissionError("writing queue entry", staging, err)
	}

	if err := os.Link(staging, final); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return oerrors.NewSubmissionError("queue entry already exists", final, err)
		}
		return oerrors.NewSubmissionError("publishing queue entry", final, err)
	}
	return nil
}

func validateName(name string) error {
	switch {
	case name == "":
		return errors.New("job has no name")
	case strings.HasPrefix(name, "."):
		return fmt.Errorf("job name %q must not start with a dot", name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("job name %q must not contain path separators", name)
	}
	return nil
}
