// Package audit appends human-readable evaluation traces to a log file.
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/jonathan/idea-prioritizer/internal/evaluation"
)

// DefaultPath is the audit log location used when none is configured.
const DefaultPath = "react_verbose_log.txt"

const entryFooter = "============================"

// FileLog appends one entry per evaluated idea. The file is opened and closed
// for every entry and is never truncated.
type FileLog struct {
	path string
	mu   sync.Mutex
}

// NewFileLog returns a FileLog writing to path, or DefaultPath when path is empty.
func NewFileLog(path string) *FileLog {
	if path == "" {
		path = DefaultPath
	}
	return &FileLog{path: path}
}

// Path returns the log file location.
func (l *FileLog) Path() string {
	return l.path
}

// Observe appends the entry for trace.
func (l *FileLog) Observe(_ context.Context, trace *evaluation.Trace) error {
	if trace == nil {
		return fmt.Errorf("audit: nil trace")
	}

	entry, err := FormatEntry(trace)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open audit log %s: %w", l.path, err)
	}
	if _, err := f.Write(entry); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write audit log %s: %w", l.path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close audit log %s: %w", l.path, err)
	}
	return nil
}

// FormatEntry renders the audit entry for one trace.
func FormatEntry(trace *evaluation.Trace) ([]byte, error) {
	parsed, err := json.MarshalIndent(trace.Evaluation, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode evaluation for idea %d: %w", trace.Idea.ID, err)
	}

	var buf bytes.Buffer
	if trace.RunID != "" {
		fmt.Fprintf(&buf, "==== Idea: %d (run %s) ====\n", trace.Idea.ID, trace.RunID)
	} else {
		fmt.Fprintf(&buf, "==== Idea: %d ====\n", trace.Idea.ID)
	}
	fmt.Fprintf(&buf, "Plan:\n%s\n\n", trace.Plan)
	fmt.Fprintf(&buf, "Additional Context:\n%s\n\n", trace.AdditionalContext)
	fmt.Fprintf(&buf, "Final Evaluation (raw response):\n%s\n\n", trace.FinalText)
	fmt.Fprintf(&buf, "Parsed Evaluation:\n%s\n", parsed)
	buf.WriteString(entryFooter + "\n\n")
	return buf.Bytes(), nil
}
