package queue

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// AuditFields is the column order of an audit log line.
var AuditFields = []string{"buildDir", "module", "version", "jobName", "server"}

// AuditLine formats the audit record for a job, tab separated, without the
// trailing newline.
func AuditLine(job Job) string {
	return strings.Join([]string{
		job.Params.BuildDir,
		job.Params.Module,
		job.Params.Version,
		job.Name,
		job.Params.Server,
	}, "\t")
}

// appendAudit appends one line to the audit log, creating it if needed.
func appendAudit(path string, job Job) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating audit log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintln(f, AuditLine(job)); err != nil {
		return fmt.Errorf("writing audit log: %w", err)
	}
	return nil
}
