// Package rundir manages a run's log directory: it creates the directory
// the trainer will write into and records a reproducibility snapshot of
// exactly what was launched there.
package rundir

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/lchen64/pid-diffusion/internal/ctxlog"
)

// SnapshotFile is the name of the launch record written into each run's
// log directory.
const SnapshotFile = "launch.json"

// Record is the reproducibility snapshot for one launch. It is written
// before the trainer starts and rewritten with the outcome afterwards, so
// a crashed launcher still leaves the argument vector on disk.
type Record struct {
	RunID      string            `json:"run_id"`
	Trainer    string            `json:"trainer"`
	Run        string            `json:"run"`
	Entrypoint string            `json:"entrypoint"`
	Python     string            `json:"python"`
	Argv       []string          `json:"argv"`
	Env        map[string]string `json:"env"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt *time.Time        `json:"finished_at,omitempty"`
	ExitCode   *int              `json:"exit_code,omitempty"`
}

// NewRecord creates a snapshot record with a fresh run ID.
func NewRecord(trainer, run, python, entrypoint string, args []string, env map[string]string) *Record {
	return &Record{
		RunID:      uuid.NewString(),
		Trainer:    trainer,
		Run:        run,
		Entrypoint: entrypoint,
		Python:     python,
		Argv:       args,
		Env:        env,
		StartedAt:  time.Now().UTC(),
	}
}

// Prepare creates the log directory and writes the initial snapshot.
func Prepare(ctx context.Context, dir string, rec *Record) error {
	logger := ctxlog.FromContext(ctx)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}
	logger.Debug("Log directory ready.", "dir", dir, "runID", rec.RunID)

	return write(dir, rec)
}

// Finalize records the trainer's outcome in the snapshot and logs a short
// summary of what the run left behind.
func Finalize(ctx context.Context, dir string, rec *Record, exitCode int) error {
	logger := ctxlog.FromContext(ctx)

	now := time.Now().UTC()
	rec.FinishedAt = &now
	rec.ExitCode = &exitCode

	if err := write(dir, rec); err != nil {
		return err
	}

	size, err := dirSize(dir)
	if err != nil {
		logger.Warn("Could not measure log directory size.", "dir", dir, "error", err)
		return nil
	}
	logger.Info("Run artifacts written.",
		"dir", dir,
		"size", humanize.Bytes(uint64(size)),
		"duration", now.Sub(rec.StartedAt).Round(time.Second).String(),
	)
	return nil
}

// write marshals the record into the snapshot file atomically enough for
// our purposes: a temp file in the same directory, then a rename.
func write(dir string, rec *Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal launch record: %w", err)
	}

	tmp, err := os.CreateTemp(dir, SnapshotFile+".*")
	if err != nil {
		return fmt.Errorf("failed to create snapshot temp file: %w", err)
	}
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close snapshot: %w", err)
	}
	return os.Rename(tmp.Name(), filepath.Join(dir, SnapshotFile))
}

// Read loads a snapshot record back from a log directory.
func Read(dir string) (*Record, error) {
	data, err := os.ReadFile(filepath.Join(dir, SnapshotFile))
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", SnapshotFile, err)
	}
	return &rec, nil
}

func dirSize(dir string) (int64, error) {
	var total int64
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	return total, err
}
