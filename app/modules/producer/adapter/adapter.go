// Package produceradapter turns scraped match observations into
// contract-valid messages and publishes them to the queue. It has no
// dependency on the consumer: the only things it touches are the broker and
// the task store, so submission succeeds whether or not any worker is alive.
package produceradapter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/olebedev/when"
	"golang.org/x/time/rate"

	appeventbus "github.com/Lakeshore-Soccer-Club/matchsync/app/eventbus"
	"github.com/Lakeshore-Soccer-Club/matchsync/app/modules/ingestion/infrastructure/taskstore"
	"github.com/Lakeshore-Soccer-Club/matchsync/app/modules/producer/contract"
	"github.com/Lakeshore-Soccer-Club/matchsync/app/shared"
	"github.com/Lakeshore-Soccer-Club/matchsync/app/shared/attr"
	"github.com/Lakeshore-Soccer-Club/matchsync/app/shared/utils"
)

// TaskIDMetadataKey is the message metadata key carrying the task handle.
// Part of the wire agreement with the consumer.
const TaskIDMetadataKey = "task_id"

// TaskHandle identifies a submission for later status polling.
type TaskHandle struct {
	TaskID string `json:"task_id"`
}

// Adapter is the producer-side entry point of the pipeline.
type Adapter struct {
	bus        shared.EventBus
	tasks      taskstore.Store
	logger     *slog.Logger
	limiter    *rate.Limiter
	dateParser *when.Parser
	now        func() time.Time
}

// NewAdapter builds a producer adapter. The limiter paces all submissions,
// single and batch alike.
func NewAdapter(bus shared.EventBus, tasks taskstore.Store, logger *slog.Logger, limit float64, burst int) *Adapter {
	return &Adapter{
		bus:        bus,
		tasks:      tasks,
		logger:     logger,
		limiter:    rate.NewLimiter(rate.Limit(limit), burst),
		dateParser: newDateParser(),
		now:        time.Now,
	}
}

// Submit converts an observation into a MatchMessage, validates it, records
// the pending task, and publishes. Contract violations fail synchronously
// before anything is written; publish failures are retryable by the caller.
func (a *Adapter) Submit(ctx context.Context, obs Observation) (TaskHandle, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return TaskHandle{}, err
	}

	msg, err := a.buildMessage(obs)
	if err != nil {
		return TaskHandle{}, err
	}

	if err := msg.Validate(); err != nil {
		return TaskHandle{}, err
	}

	taskID := uuid.New().String()

	// Pending entry goes in before the publish so a fast worker can never
	// observe a missing task.
	if err := a.tasks.CreatePending(ctx, taskID); err != nil {
		return TaskHandle{}, fmt.Errorf("failed to create task entry: %w", err)
	}

	wm, err := utils.NewMessage(taskID, msg)
	if err != nil {
		return TaskHandle{}, err
	}
	wm.Metadata.Set(TaskIDMetadataKey, taskID)

	if err := a.bus.Publish(appeventbus.MatchSubmittedTopic, wm); err != nil {
		// The pending entry is orphaned; the bucket TTL reclaims it.
		a.logger.ErrorContext(ctx, "publish failed, task orphaned",
			attr.TaskID(taskID),
			attr.Error(err),
		)
		return TaskHandle{}, fmt.Errorf("failed to publish submission: %w", err)
	}

	a.logger.InfoContext(ctx, "match submitted",
		attr.TaskID(taskID),
		attr.String("home_team", msg.HomeTeam),
		attr.String("away_team", msg.AwayTeam),
	)

	return TaskHandle{TaskID: taskID}, nil
}

// BatchResult reports the outcome of one observation in a batch import.
type BatchResult struct {
	Index  int         `json:"index"`
	Handle *TaskHandle `json:"task,omitempty"`
	Err    string      `json:"error,omitempty"`
}

// ImportBatch submits observations one by one, paced by the submit rate
// limiter. Individual failures do not stop the batch; the caller decides
// what to retry.
func (a *Adapter) ImportBatch(ctx context.Context, observations []Observation) []BatchResult {
	results := make([]BatchResult, 0, len(observations))
	for i, obs := range observations {
		handle, err := a.Submit(ctx, obs)
		if err != nil {
			results = append(results, BatchResult{Index: i, Err: err.Error()})
			continue
		}
		results = append(results, BatchResult{Index: i, Handle: &handle})
	}
	return results
}

func (a *Adapter) buildMessage(obs Observation) (*contract.MatchMessage, error) {
	date, err := normalizeDate(a.dateParser, obs.Date, a.now())
	if err != nil {
		return nil, &contract.ValidationError{Fields: []contract.FieldError{{
			Field:  "date",
			Reason: err.Error(),
		}}}
	}

	msg := &contract.MatchMessage{
		HomeTeam:  obs.HomeTeam,
		AwayTeam:  obs.AwayTeam,
		Date:      date,
		Season:    obs.Season,
		AgeGroup:  obs.AgeGroup,
		MatchType: obs.MatchType,
		ScoreHome: obs.HomeScore,
		ScoreAway: obs.AwayScore,
	}
	if obs.Division != "" {
		msg.Division = &obs.Division
	}
	if obs.Status != "" {
		msg.Status = &obs.Status
	}
	if obs.ExternalID != "" {
		msg.MatchID = &obs.ExternalID
	}
	if obs.Location != "" {
		msg.Location = &obs.Location
	}
	if obs.Notes != "" {
		msg.Notes = &obs.Notes
	}
	return msg, nil
}
