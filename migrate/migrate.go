// Package migrate upgrades project documentation layouts between Agent3D
// versions. Every apply takes a timestamped backup first; a failing migration
// is rolled back from that backup and recorded as failed, and nothing after
// it runs.
package migrate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// TrackerFile records migration outcomes, relative to the project root.
	TrackerFile = ".agent3d-tmp/migrations.yml"
	// BackupDir holds timestamped pre-migration backups.
	BackupDir = ".agent3d-tmp/backups"
)

// Sentinel errors for migration operations.
var (
	ErrUnknownMigration = errors.New("unknown migration")
	ErrNothingToRoll    = errors.New("no applied migration to roll back")
)

// Migration is one versioned documentation upgrade.
type Migration struct {
	// ID orders migrations and keys the tracker (e.g. "001-docs-dir").
	ID string
	// Description is a one-line summary for `migrate status`.
	Description string
	// Apply performs the upgrade against the project root.
	Apply func(root string) error
}

// RecordStatus is the tracked outcome of one migration.
type RecordStatus string

const (
	RecordApplied    RecordStatus = "applied"
	RecordFailed     RecordStatus = "failed"
	RecordRolledBack RecordStatus = "rolled_back"
)

// Record is one tracker entry.
type Record struct {
	ID        string       `yaml:"id"`
	Status    RecordStatus `yaml:"status"`
	AppliedAt string       `yaml:"applied_at"`
	Backup    string       `yaml:"backup,omitempty"`
	Error     string       `yaml:"error,omitempty"`
}

// trackerDoc is the on-disk shape of the tracker file.
type trackerDoc struct {
	Migrations []Record `yaml:"migrations"`
}

// Manager runs migrations for one project.
type Manager struct {
	root       string
	migrations []Migration
	logger     *slog.Logger
	now        func() time.Time
}

// NewManager creates a Manager with the built-in migration set.
func NewManager(root string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		root:       root,
		migrations: builtins(),
		logger:     logger,
		now:        time.Now,
	}
}

// Status pairs each known migration with its tracked record (nil when never
// run).
type Status struct {
	Migration Migration
	Record    *Record
}

// Status reports every known migration and its current state, in order.
func (m *Manager) Status() ([]Status, error) {
	doc, err := m.loadTracker()
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*Record, len(doc.Migrations))
	for i := range doc.Migrations {
		byID[doc.Migrations[i].ID] = &doc.Migrations[i]
	}

	out := make([]Status, 0, len(m.migrations))
	for _, mig := range m.migrations {
		out = append(out, Status{Migration: mig, Record: byID[mig.ID]})
	}
	return out, nil
}

// Apply runs every pending migration in order. The first failure stops the
// run: the project is restored from the pre-migration backup, the migration
// is recorded as failed, and the error is returned.
func (m *Manager) Apply(ctx context.Context) ([]Record, error) {
	doc, err := m.loadTracker()
	if err != nil {
		return nil, err
	}

	applied := make(map[string]bool)
	for _, rec := range doc.Migrations {
		if rec.Status == RecordApplied {
			applied[rec.ID] = true
		}
	}

	var ran []Record
	for _, mig := range m.migrations {
		if applied[mig.ID] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return ran, err
		}

		backup, err := m.backup(mig.ID)
		if err != nil {
			return ran, fmt.Errorf("backup before %s: %w", mig.ID, err)
		}

		m.logger.Info("Applying migration", slog.String("id", mig.ID))
		if applyErr := mig.Apply(m.root); applyErr != nil {
			m.logger.Error("Migration failed, restoring backup",
				slog.String("id", mig.ID), slog.String("error", applyErr.Error()))

			if restoreErr := m.restore(backup); restoreErr != nil {
				return ran, fmt.Errorf("migration %s failed (%v) and restore failed: %w", mig.ID, applyErr, restoreErr)
			}

			rec := Record{
				ID:        mig.ID,
				Status:    RecordFailed,
				AppliedAt: m.timestamp(),
				Backup:    backup,
				Error:     applyErr.Error(),
			}
			doc.upsert(rec)
			if err := m.saveTracker(doc); err != nil {
				return ran, err
			}
			return ran, fmt.Errorf("migration %s: %w", mig.ID, applyErr)
		}

		rec := Record{
			ID:        mig.ID,
			Status:    RecordApplied,
			AppliedAt: m.timestamp(),
			Backup:    backup,
		}
		doc.upsert(rec)
		if err := m.saveTracker(doc); err != nil {
			return ran, err
		}
		ran = append(ran, rec)
	}

	return ran, nil
}

// Rollback restores the most recently applied migration from its backup and
// marks it rolled back.
func (m *Manager) Rollback(ctx context.Context) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := m.loadTracker()
	if err != nil {
		return nil, err
	}

	var last *Record
	for i := range doc.Migrations {
		rec := &doc.Migrations[i]
		if rec.Status == RecordApplied && (last == nil || rec.AppliedAt >= last.AppliedAt) {
			last = rec
		}
	}
	if last == nil {
		return nil, ErrNothingToRoll
	}

	if err := m.restore(last.Backup); err != nil {
		return nil, fmt.Errorf("restore backup for %s: %w", last.ID, err)
	}

	last.Status = RecordRolledBack
	if err := m.saveTracker(doc); err != nil {
		return nil, err
	}

	m.logger.Info("Rolled back migration", slog.String("id", last.ID))
	rec := *last
	return &rec, nil
}

func (d *trackerDoc) upsert(rec Record) {
	for i := range d.Migrations {
		if d.Migrations[i].ID == rec.ID {
			d.Migrations[i] = rec
			return
		}
	}
	d.Migrations = append(d.Migrations, rec)
}

func (m *Manager) trackerPath() string {
	return filepath.Join(m.root, filepath.FromSlash(TrackerFile))
}

func (m *Manager) loadTracker() (*trackerDoc, error) {
	data, err := os.ReadFile(m.trackerPath())
	if err != nil {
		if os.IsNotExist(err) {
			return &trackerDoc{}, nil
		}
		return nil, fmt.Errorf("read migration tracker: %w", err)
	}

	var doc trackerDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse migration tracker: %w", err)
	}
	return &doc, nil
}

func (m *Manager) saveTracker(doc *trackerDoc) error {
	if err := os.MkdirAll(filepath.Dir(m.trackerPath()), 0755); err != nil {
		return fmt.Errorf("create tracker directory: %w", err)
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal migration tracker: %w", err)
	}

	if err := os.WriteFile(m.trackerPath(), data, 0644); err != nil {
		return fmt.Errorf("write migration tracker: %w", err)
	}
	return nil
}

func (m *Manager) timestamp() string {
	return m.now().UTC().Format(time.RFC3339)
}
