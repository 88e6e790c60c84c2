package ingestionservice

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Lakeshore-Soccer-Club/matchsync/app/modules/ingestion/contract"
	ingestiondb "github.com/Lakeshore-Soccer-Club/matchsync/app/modules/ingestion/infrastructure/repositories"
	"github.com/Lakeshore-Soccer-Club/matchsync/app/modules/ingestion/infrastructure/taskstore"
	"github.com/Lakeshore-Soccer-Club/matchsync/app/shared/attr"
	"github.com/Lakeshore-Soccer-Club/matchsync/app/shared/results"
)

// ProcessMatchSubmission runs the per-message pipeline: resolve references,
// apply the match write, finalize the task result. A nil error with a
// Failure payload means the outcome was recorded and the message can be
// acknowledged; a non-nil error means nothing was finalized and the message
// must be redelivered.
func (s *MatchIngestionService) ProcessMatchSubmission(ctx context.Context, taskID string, msg *contract.MatchMessage) (IngestionResult, error) {
	return s.withTelemetry(ctx, "ProcessMatchSubmission", taskID, func(ctx context.Context) (IngestionResult, error) {
		resolved, err := s.resolver.Resolve(ctx, msg)
		if err != nil {
			var resErr *ResolutionError
			if errors.As(err, &resErr) {
				return s.recordFailure(ctx, taskID, string(resErr.Code), resErr.Error())
			}
			return IngestionResult{}, err
		}

		applied, err := s.applyMatch(ctx, resolved)
		if err != nil {
			var mismatch *ImmutableMismatchError
			if errors.As(err, &mismatch) {
				return s.recordFailure(ctx, taskID, string(CodeImmutableFieldMismatch), mismatch.Error())
			}
			return IngestionResult{}, err
		}

		if err := s.tasks.MarkSuccess(ctx, taskID, taskstore.Success{
			MatchID:     applied.MatchID,
			Action:      string(applied.Action),
			FallbackKey: applied.FallbackKey,
		}); err != nil {
			// The relational write landed but the outcome was not recorded.
			// Redelivery will converge on unchanged.
			return IngestionResult{}, fmt.Errorf("failed to finalize task: %w", err)
		}

		s.metrics.RecordIngestAction(ctx, string(applied.Action))
		s.logger.InfoContext(ctx, "match ingested",
			attr.TaskID(taskID),
			attr.String("action", string(applied.Action)),
			attr.Bool("fallback_key", applied.FallbackKey),
		)

		return results.Ok[IngestSuccess, IngestFailure](IngestSuccess{
			TaskID:      taskID,
			MatchID:     applied.MatchID,
			Action:      applied.Action,
			FallbackKey: applied.FallbackKey,
		}), nil
	})
}

// RecordContractViolation finalizes a task whose payload failed schema
// validation on the consumer side.
func (s *MatchIngestionService) RecordContractViolation(ctx context.Context, taskID string, verr error) error {
	if err := s.tasks.MarkFailure(ctx, taskID, taskstore.Failure{
		Code:    string(CodeContractViolation),
		Message: verr.Error(),
	}); err != nil {
		return fmt.Errorf("failed to finalize task: %w", err)
	}
	s.metrics.RecordResolutionFailure(ctx, string(CodeContractViolation))
	return nil
}

func (s *MatchIngestionService) recordFailure(ctx context.Context, taskID, code, reason string) (IngestionResult, error) {
	if err := s.tasks.MarkFailure(ctx, taskID, taskstore.Failure{
		Code:    code,
		Message: reason,
	}); err != nil {
		return IngestionResult{}, fmt.Errorf("failed to finalize task: %w", err)
	}
	s.metrics.RecordResolutionFailure(ctx, code)
	return results.Fail[IngestSuccess, IngestFailure](IngestFailure{
		TaskID: taskID,
		Code:   code,
		Reason: reason,
	}), nil
}

// appliedMatch is the outcome of one match write.
type appliedMatch struct {
	MatchID     int64
	Action      ingestiondb.UpsertAction
	FallbackKey bool
}

// applyMatch decides create vs update vs no-op. With an external match id
// the write is a single constraint-backed upsert; without one it falls back
// to the lower-confidence (teams, date) key.
func (s *MatchIngestionService) applyMatch(ctx context.Context, resolved *ResolvedMatch) (appliedMatch, error) {
	row := matchRow(resolved)

	if resolved.ExternalMatchID != nil {
		existing, err := s.repo.FindByExternalID(ctx, *resolved.ExternalMatchID)
		if err != nil && !errors.Is(err, ingestiondb.ErrNotFound) {
			return appliedMatch{}, err
		}
		if existing != nil {
			if detail := immutableMismatch(existing, row); detail != "" {
				return appliedMatch{}, &ImmutableMismatchError{
					ExternalMatchID: *resolved.ExternalMatchID,
					Detail:          detail,
				}
			}
		}

		res, err := s.repo.UpsertByExternalID(ctx, row)
		if err != nil {
			return appliedMatch{}, err
		}
		return appliedMatch{MatchID: res.MatchID, Action: res.Action}, nil
	}

	// No natural key: best-effort match on the same fixture the same day.
	existing, err := s.repo.FindByFixture(ctx, resolved.HomeTeamID, resolved.AwayTeamID, resolved.MatchDate)
	if err != nil {
		if errors.Is(err, ingestiondb.ErrNotFound) {
			id, err := s.repo.InsertMatch(ctx, row)
			if err != nil {
				return appliedMatch{}, err
			}
			return appliedMatch{MatchID: id, Action: ingestiondb.ActionCreated, FallbackKey: true}, nil
		}
		return appliedMatch{}, err
	}

	if existing.MutableEqual(row) {
		return appliedMatch{MatchID: existing.ID, Action: ingestiondb.ActionUnchanged, FallbackKey: true}, nil
	}

	if err := s.repo.UpdateMutable(ctx, existing.ID, row.Status, row.HomeScore, row.AwayScore); err != nil {
		return appliedMatch{}, err
	}
	return appliedMatch{MatchID: existing.ID, Action: ingestiondb.ActionUpdated, FallbackKey: true}, nil
}

func matchRow(resolved *ResolvedMatch) *ingestiondb.Match {
	return &ingestiondb.Match{
		ExternalMatchID: resolved.ExternalMatchID,
		HomeTeamID:      resolved.HomeTeamID,
		AwayTeamID:      resolved.AwayTeamID,
		SeasonID:        resolved.SeasonID,
		AgeGroupID:      resolved.AgeGroupID,
		MatchTypeID:     resolved.MatchTypeID,
		DivisionID:      resolved.DivisionID,
		MatchDate:       resolved.MatchDate,
		Status:          resolved.Status,
		HomeScore:       resolved.HomeScore,
		AwayScore:       resolved.AwayScore,
		Location:        resolved.Location,
		Notes:           resolved.Notes,
	}
}

// immutableMismatch compares the fields this pipeline never overwrites,
// returning a description of the first difference.
func immutableMismatch(existing, incoming *ingestiondb.Match) string {
	if existing.HomeTeamID != incoming.HomeTeamID {
		return fmt.Sprintf("home team %d != %d", existing.HomeTeamID, incoming.HomeTeamID)
	}
	if existing.AwayTeamID != incoming.AwayTeamID {
		return fmt.Sprintf("away team %d != %d", existing.AwayTeamID, incoming.AwayTeamID)
	}
	if !sameDate(existing.MatchDate, incoming.MatchDate) {
		return fmt.Sprintf("match date %s != %s",
			existing.MatchDate.Format("2006-01-02"), incoming.MatchDate.Format("2006-01-02"))
	}
	if existing.SeasonID != incoming.SeasonID {
		return fmt.Sprintf("season %d != %d", existing.SeasonID, incoming.SeasonID)
	}
	if existing.AgeGroupID != incoming.AgeGroupID {
		return fmt.Sprintf("age group %d != %d", existing.AgeGroupID, incoming.AgeGroupID)
	}
	if existing.MatchTypeID != incoming.MatchTypeID {
		return fmt.Sprintf("match type %d != %d", existing.MatchTypeID, incoming.MatchTypeID)
	}
	if !int64PtrEqual(existing.DivisionID, incoming.DivisionID) {
		return fmt.Sprintf("division %s != %s",
			divisionRef(existing.DivisionID), divisionRef(incoming.DivisionID))
	}
	return ""
}

func int64PtrEqual(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func divisionRef(id *int64) string {
	if id == nil {
		return "none"
	}
	return strconv.FormatInt(*id, 10)
}

func sameDate(a, b time.Time) bool {
	return a.Format("2006-01-02") == b.Format("2006-01-02")
}
