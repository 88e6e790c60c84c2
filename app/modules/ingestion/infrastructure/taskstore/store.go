package taskstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/Lakeshore-Soccer-Club/matchsync/app/shared/attr"
)

const bucketName = "MATCH_TASKS"

// KVStore implements Store on a JetStream key-value bucket. The bucket TTL
// is the retention window for finished tasks.
type KVStore struct {
	kv     jetstream.KeyValue
	logger *slog.Logger
}

var _ Store = (*KVStore)(nil)

// New provisions the task bucket and returns a store bound to it.
func New(ctx context.Context, js jetstream.JetStream, ttl time.Duration, logger *slog.Logger) (*KVStore, error) {
	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket: bucketName,
		TTL:    ttl,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to provision task bucket: %w", err)
	}
	return &KVStore{kv: kv, logger: logger}, nil
}

func (s *KVStore) CreatePending(ctx context.Context, taskID string) error {
	return s.put(ctx, TaskResult{
		TaskID:    taskID,
		State:     StatePending,
		UpdatedAt: time.Now().UTC(),
	})
}

func (s *KVStore) MarkSuccess(ctx context.Context, taskID string, result Success) error {
	return s.put(ctx, TaskResult{
		TaskID:    taskID,
		State:     StateSuccess,
		Result:    &result,
		UpdatedAt: time.Now().UTC(),
	})
}

func (s *KVStore) MarkFailure(ctx context.Context, taskID string, failure Failure) error {
	return s.put(ctx, TaskResult{
		TaskID:    taskID,
		State:     StateFailure,
		Error:     &failure,
		UpdatedAt: time.Now().UTC(),
	})
}

func (s *KVStore) Get(ctx context.Context, taskID string) (*TaskResult, error) {
	entry, err := s.kv.Get(ctx, taskID)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read task %s: %w", taskID, err)
	}

	var result TaskResult
	if err := json.Unmarshal(entry.Value(), &result); err != nil {
		return nil, fmt.Errorf("failed to decode task %s: %w", taskID, err)
	}
	return &result, nil
}

func (s *KVStore) put(ctx context.Context, result TaskResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode task %s: %w", result.TaskID, err)
	}

	if _, err := s.kv.Put(ctx, result.TaskID, data); err != nil {
		return fmt.Errorf("failed to write task %s: %w", result.TaskID, err)
	}

	s.logger.Debug("task result written",
		attr.TaskID(result.TaskID),
		attr.String("state", string(result.State)),
	)
	return nil
}
