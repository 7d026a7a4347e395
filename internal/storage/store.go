package storage

import (
	"context"
	"errors"
	"time"

	"typelift/internal/metamodel"
	"typelift/internal/pipeline"

	"github.com/google/uuid"
)

var (
	ErrRunNotFound  = errors.New("run not found")
	ErrAmbiguousRun = errors.New("ambiguous run id")
)

// Store persists normalization runs.
type Store interface {
	// SaveRun writes a run with its stages and resulting hierarchy.
	SaveRun(ctx context.Context, run *Run) error

	// LoadRun retrieves a run by id or unique id prefix.
	LoadRun(ctx context.Context, id string) (*Run, error)

	// ListRuns returns run headers, newest first. Stages and types are not
	// loaded.
	ListRuns(ctx context.Context, limit int) ([]*Run, error)

	Close() error
}

// Run is one recorded normalization.
type Run struct {
	ID        string
	Source    string
	Mode      metamodel.IndexMode
	CreatedAt time.Time
	Added     int
	Removed   int
	Stages    []pipeline.StageResult
	Diff      []pipeline.TypeChange
	Types     []TypeRecord
}

// TypeRecord is the normalized state of one type.
type TypeRecord struct {
	Name       string
	Sealed     bool
	Supertypes []string
	Features   []string
}

// NewRun captures the outcome of a normalization of reg.
func NewRun(source string, reg *metamodel.Registry, res *pipeline.Result) *Run {
	run := &Run{
		ID:        uuid.NewString(),
		Source:    source,
		Mode:      reg.Mode(),
		CreatedAt: time.Now().UTC(),
	}
	if res != nil {
		run.Added = res.Added()
		run.Removed = res.Removed()
		run.Stages = res.Stages
		run.Diff = res.Diff
	}

	snap := reg.Snapshot()
	for _, n := range reg.AllTypes() {
		rec := TypeRecord{
			Name:     n.Name,
			Sealed:   n.Sealed(),
			Features: snap[n.Name],
		}
		for _, s := range n.Supertypes() {
			rec.Supertypes = append(rec.Supertypes, s.Name)
		}
		run.Types = append(run.Types, rec)
	}
	return run
}
