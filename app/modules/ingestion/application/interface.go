package ingestionservice

import (
	"context"

	"github.com/Lakeshore-Soccer-Club/matchsync/app/modules/ingestion/contract"
	ingestiondb "github.com/Lakeshore-Soccer-Club/matchsync/app/modules/ingestion/infrastructure/repositories"
	"github.com/Lakeshore-Soccer-Club/matchsync/app/shared/results"
)

// IngestSuccess is the success side of a processed submission.
type IngestSuccess struct {
	TaskID      string
	MatchID     int64
	Action      ingestiondb.UpsertAction
	FallbackKey bool
}

// IngestFailure is the business-failure side of a processed submission. The
// task result has already been finalized when it is returned.
type IngestFailure struct {
	TaskID string
	Code   string
	Reason string
}

// IngestionResult carries the terminal outcome of one submission.
type IngestionResult = results.OperationResult[IngestSuccess, IngestFailure]

// Service is the consumer-side pipeline: resolve references, apply the match
// write, finalize the task result.
type Service interface {
	ProcessMatchSubmission(ctx context.Context, taskID string, msg *contract.MatchMessage) (IngestionResult, error)
	// RecordContractViolation finalizes a task whose payload failed schema
	// validation before reaching resolution.
	RecordContractViolation(ctx context.Context, taskID string, verr error) error
}
