package ingestionrouter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	appeventbus "github.com/Lakeshore-Soccer-Club/matchsync/app/eventbus"
	ingestionservice "github.com/Lakeshore-Soccer-Club/matchsync/app/modules/ingestion/application"
	"github.com/Lakeshore-Soccer-Club/matchsync/app/modules/ingestion/contract"
	ingestionevents "github.com/Lakeshore-Soccer-Club/matchsync/app/modules/ingestion/events"
	ingestionhandlers "github.com/Lakeshore-Soccer-Club/matchsync/app/modules/ingestion/infrastructure/handlers"
	ingestiondb "github.com/Lakeshore-Soccer-Club/matchsync/app/modules/ingestion/infrastructure/repositories"
	ingestionmetrics "github.com/Lakeshore-Soccer-Club/matchsync/app/modules/ingestion/metrics"
	"github.com/Lakeshore-Soccer-Club/matchsync/app/shared"
	"github.com/Lakeshore-Soccer-Club/matchsync/app/shared/results"
	"github.com/Lakeshore-Soccer-Club/matchsync/config"
)

// FakeBus feeds the router from a channel and records outbound publishes.
type FakeBus struct {
	mu         sync.Mutex
	incoming   chan *message.Message
	published  map[string][]*message.Message
	publishErr error
}

var _ shared.EventBus = (*FakeBus)(nil)

func NewFakeBus() *FakeBus {
	return &FakeBus{
		incoming:  make(chan *message.Message),
		published: map[string][]*message.Message{},
	}
}

func (f *FakeBus) Publish(topic string, messages ...*message.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published[topic] = append(f.published[topic], messages...)
	return nil
}

func (f *FakeBus) Subscribe(_ context.Context, _ string) (<-chan *message.Message, error) {
	return f.incoming, nil
}

func (f *FakeBus) EnsureStream(_ context.Context, _ string, _ ...string) error { return nil }

func (f *FakeBus) Close() error { return nil }

func (f *FakeBus) PublishedTo(topic string) []*message.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*message.Message(nil), f.published[topic]...)
}

// FakeService returns a canned success unless overridden.
type FakeService struct {
	ProcessFn func(ctx context.Context, taskID string, msg *contract.MatchMessage) (ingestionservice.IngestionResult, error)
}

var _ ingestionservice.Service = (*FakeService)(nil)

func (f *FakeService) ProcessMatchSubmission(ctx context.Context, taskID string, msg *contract.MatchMessage) (ingestionservice.IngestionResult, error) {
	if f.ProcessFn != nil {
		return f.ProcessFn(ctx, taskID, msg)
	}
	return results.Ok[ingestionservice.IngestSuccess, ingestionservice.IngestFailure](ingestionservice.IngestSuccess{
		TaskID:  taskID,
		MatchID: 7,
		Action:  ingestiondb.ActionCreated,
	}), nil
}

func (f *FakeService) RecordContractViolation(_ context.Context, _ string, _ error) error {
	return nil
}

func startRouter(t *testing.T, bus *FakeBus, service ingestionservice.Service) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	wmRouter, err := message.NewRouter(message.RouterConfig{}, watermill.NopLogger{})
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Ingestion.MessageTimeout = 5 * time.Second

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	r := NewIngestionRouter(logger, wmRouter, bus, cfg, noop.NewTracerProvider().Tracer("test"), nil)
	require.NoError(t, r.Configure(ctx, service, ingestionmetrics.NoOpMetrics{}))

	go func() { _ = wmRouter.Run(ctx) }()
	select {
	case <-wmRouter.Running():
	case <-time.After(5 * time.Second):
		t.Fatal("router did not start")
	}
}

func submittedMessage(t *testing.T, taskID string) *message.Message {
	t.Helper()
	payload, err := json.Marshal(&contract.MatchMessage{
		HomeTeam:  "Lakeside United",
		AwayTeam:  "Harbor Rovers",
		Date:      "2026-03-14",
		Season:    "2025/2026",
		AgeGroup:  "U15",
		MatchType: "Friendly",
	})
	require.NoError(t, err)

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set(ingestionhandlers.TaskIDMetadataKey, taskID)
	return msg
}

func TestRegisterHandlers_PublishesIngestedEvent(t *testing.T) {
	bus := NewFakeBus()
	startRouter(t, bus, &FakeService{})

	msg := submittedMessage(t, "task-9")
	bus.incoming <- msg

	require.Eventually(t, func() bool {
		return len(bus.PublishedTo(appeventbus.MatchIngestedTopic)) == 1
	}, 5*time.Second, 10*time.Millisecond)

	select {
	case <-msg.Acked():
	case <-time.After(5 * time.Second):
		t.Fatal("message was not acked")
	}

	out := bus.PublishedTo(appeventbus.MatchIngestedTopic)[0]
	var event ingestionevents.MatchIngestedPayloadV1
	require.NoError(t, json.Unmarshal(out.Payload, &event))
	require.Equal(t, "task-9", event.TaskID)
	require.Equal(t, int64(7), event.MatchID)
}

func TestRegisterHandlers_PublishFailureNacks(t *testing.T) {
	bus := NewFakeBus()
	bus.publishErr = errors.New("broker down")
	startRouter(t, bus, &FakeService{})

	msg := submittedMessage(t, "task-10")
	bus.incoming <- msg

	select {
	case <-msg.Nacked():
	case <-time.After(5 * time.Second):
		t.Fatal("message was not nacked")
	}
	require.Empty(t, bus.PublishedTo(appeventbus.MatchIngestedTopic))
}
