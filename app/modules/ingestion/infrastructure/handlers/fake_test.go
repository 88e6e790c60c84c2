package ingestionhandlers

import (
	"context"

	ingestionservice "github.com/Lakeshore-Soccer-Club/matchsync/app/modules/ingestion/application"
	"github.com/Lakeshore-Soccer-Club/matchsync/app/modules/ingestion/contract"
)

// FakeService provides a programmable stub for the ingestion service.
type FakeService struct {
	ProcessMatchSubmissionFn  func(ctx context.Context, taskID string, msg *contract.MatchMessage) (ingestionservice.IngestionResult, error)
	RecordContractViolationFn func(ctx context.Context, taskID string, verr error) error

	ProcessedTaskIDs []string
	ViolationTaskIDs []string
}

var _ ingestionservice.Service = (*FakeService)(nil)

func (f *FakeService) ProcessMatchSubmission(ctx context.Context, taskID string, msg *contract.MatchMessage) (ingestionservice.IngestionResult, error) {
	f.ProcessedTaskIDs = append(f.ProcessedTaskIDs, taskID)
	if f.ProcessMatchSubmissionFn != nil {
		return f.ProcessMatchSubmissionFn(ctx, taskID, msg)
	}
	return ingestionservice.IngestionResult{}, nil
}

func (f *FakeService) RecordContractViolation(ctx context.Context, taskID string, verr error) error {
	f.ViolationTaskIDs = append(f.ViolationTaskIDs, taskID)
	if f.RecordContractViolationFn != nil {
		return f.RecordContractViolationFn(ctx, taskID, verr)
	}
	return nil
}
