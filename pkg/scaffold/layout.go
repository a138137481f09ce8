// Package scaffold implements the ambient output-directory machinery: it
// resets and rebuilds <output-dir>/_generated/ (with an audit trail of every
// path removed), renders run.sh/clean.sh/README.md from templates, and
// writes each participant's adapter-config.json. None of this is core
// compiler logic — spec.md §1 lists it as an external collaborator.
package scaffold

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// AuditEntry records one filesystem action taken while resetting the
// generated directory, mirroring the teacher's cleanup.AuditEntry shape.
type AuditEntry struct {
	Timestamp time.Time
	Action    string
	Target    string
	Success   bool
	Error     error
}

// Layout owns the generated-case directory tree rooted at
// <OutputDir>/_generated.
type Layout struct {
	OutputDir string

	auditLog []AuditEntry
}

// NewLayout creates a Layout rooted at outputDir.
func NewLayout(outputDir string) *Layout {
	return &Layout{OutputDir: outputDir}
}

// GeneratedDir returns the root of the generated case tree.
func (l *Layout) GeneratedDir() string {
	return filepath.Join(l.OutputDir, "_generated")
}

// ParticipantDir returns the directory for one participant's adapter config
// and run script, named <participant>-<solver> per spec.md §6.
func (l *Layout) ParticipantDir(participant, solver string) string {
	return filepath.Join(l.GeneratedDir(), participant+"-"+solver)
}

// Reset removes any existing _generated tree and recreates it empty,
// logging every removal and creation to the audit trail so a caller can
// report what changed.
func (l *Layout) Reset() error {
	root := l.GeneratedDir()

	if _, err := os.Stat(root); err == nil {
		l.logAudit("remove", root, os.RemoveAll(root))
	}

	err := os.MkdirAll(root, 0755)
	l.logAudit("create", root, err)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", root, err)
	}

	return nil
}

// EnsureParticipantDir creates a participant's directory, logging the action.
func (l *Layout) EnsureParticipantDir(participant, solver string) (string, error) {
	dir := l.ParticipantDir(participant, solver)
	err := os.MkdirAll(dir, 0755)
	l.logAudit("create", dir, err)
	if err != nil {
		return "", fmt.Errorf("failed to create participant directory %s: %w", dir, err)
	}
	return dir, nil
}

func (l *Layout) logAudit(action, target string, err error) {
	l.auditLog = append(l.auditLog, AuditEntry{
		Timestamp: time.Now(),
		Action:    action,
		Target:    target,
		Success:   err == nil,
		Error:     err,
	})
}

// AuditLog returns every recorded filesystem action, in order.
func (l *Layout) AuditLog() []AuditEntry {
	return l.auditLog
}
