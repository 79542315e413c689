package store

import (
	"context"

	"github.com/qwex/breedcheck/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for verification history.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, inputPath, modelName string) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, result *model.RunResult) error
	FailRun(ctx context.Context, runID string, reason string) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Verifications
	SaveOutcomes(ctx context.Context, runID string, outcomes []model.Outcome) error
	ListVerifications(ctx context.Context, runID string) ([]model.VerificationEntry, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
