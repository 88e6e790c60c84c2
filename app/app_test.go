package app

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/Lakeshore-Soccer-Club/matchsync/app/modules/ingestion"
	ingestiondb "github.com/Lakeshore-Soccer-Club/matchsync/app/modules/ingestion/infrastructure/repositories"
	"github.com/Lakeshore-Soccer-Club/matchsync/app/modules/ingestion/infrastructure/taskstore"
	"github.com/Lakeshore-Soccer-Club/matchsync/app/modules/producer"
	"github.com/Lakeshore-Soccer-Club/matchsync/app/shared"
	"github.com/Lakeshore-Soccer-Club/matchsync/config"
)

type fakeBus struct {
	incoming chan *message.Message
}

var _ shared.EventBus = (*fakeBus)(nil)

func (f *fakeBus) Publish(_ string, _ ...*message.Message) error { return nil }

func (f *fakeBus) Subscribe(_ context.Context, _ string) (<-chan *message.Message, error) {
	return f.incoming, nil
}

func (f *fakeBus) EnsureStream(_ context.Context, _ string, _ ...string) error { return nil }

func (f *fakeBus) Close() error { return nil }

type fakeRepo struct{}

var _ ingestiondb.Repository = fakeRepo{}

func (fakeRepo) FindTeamIDByName(_ context.Context, _ string) (int64, error) {
	return 0, ingestiondb.ErrNotFound
}

func (fakeRepo) FindSeasonIDByLabel(_ context.Context, _ string) (int64, error) {
	return 0, ingestiondb.ErrNotFound
}

func (fakeRepo) FindAgeGroupIDByLabel(_ context.Context, _ string) (int64, error) {
	return 0, ingestiondb.ErrNotFound
}

func (fakeRepo) FindMatchTypeIDByLabel(_ context.Context, _ string) (int64, error) {
	return 0, ingestiondb.ErrNotFound
}

func (fakeRepo) FindDivisionIDByName(_ context.Context, _ string) (int64, error) {
	return 0, ingestiondb.ErrNotFound
}

func (fakeRepo) CreateTeam(_ context.Context, _ string) (int64, error) { return 0, nil }

func (fakeRepo) FindByExternalID(_ context.Context, _ string) (*ingestiondb.Match, error) {
	return nil, ingestiondb.ErrNotFound
}

func (fakeRepo) FindByFixture(_ context.Context, _, _ int64, _ time.Time) (*ingestiondb.Match, error) {
	return nil, ingestiondb.ErrNotFound
}

func (fakeRepo) UpsertByExternalID(_ context.Context, _ *ingestiondb.Match) (ingestiondb.UpsertResult, error) {
	return ingestiondb.UpsertResult{}, nil
}

func (fakeRepo) InsertMatch(_ context.Context, _ *ingestiondb.Match) (int64, error) {
	return 0, nil
}

func (fakeRepo) UpdateMutable(_ context.Context, _ int64, _ string, _, _ *int) error {
	return nil
}

type fakeTasks struct{}

var _ taskstore.Store = fakeTasks{}

func (fakeTasks) CreatePending(_ context.Context, _ string) error { return nil }

func (fakeTasks) MarkSuccess(_ context.Context, _ string, _ taskstore.Success) error {
	return nil
}

func (fakeTasks) MarkFailure(_ context.Context, _ string, _ taskstore.Failure) error {
	return nil
}

func (fakeTasks) Get(_ context.Context, _ string) (*taskstore.TaskResult, error) {
	return nil, taskstore.ErrNotFound
}

// newTestApp wires an App against fakes; only the HTTP listener is real.
func newTestApp(t *testing.T, addr string) *App {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := &config.Config{}
	cfg.HTTP.Addr = addr
	cfg.HTTP.SubmitRateLimit = 10
	cfg.HTTP.SubmitRateBurst = 10
	cfg.Ingestion.WorkerCount = 2
	cfg.Ingestion.MessageTimeout = 5 * time.Second

	router, err := message.NewRouter(message.RouterConfig{}, watermill.NopLogger{})
	require.NoError(t, err)

	bus := &fakeBus{incoming: make(chan *message.Message)}
	tasks := fakeTasks{}

	ingestionModule, err := ingestion.NewModule(
		context.Background(), cfg, fakeRepo{}, tasks, bus, router, logger,
		noop.NewTracerProvider().Tracer("test"), nil,
	)
	require.NoError(t, err)

	return &App{
		Config:          cfg,
		WatermillRouter: router,
		IngestionModule: ingestionModule,
		ProducerModule:  producer.NewModule(cfg, bus, tasks, logger),
		Tasks:           tasks,
		logger:          logger,
		httpServer:      &http.Server{Addr: addr, ReadHeaderTimeout: 10 * time.Second},
	}
}

func TestRun_ReturnsWhenComponentFails(t *testing.T) {
	// Hold the port so the api server fails to bind.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	app := newTestApp(t, ln.Addr().String())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	select {
	case err := <-done:
		require.Error(t, err)
		require.Contains(t, err.Error(), "api server stopped")
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after the api server failed")
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	app := newTestApp(t, "127.0.0.1:0")
	defer app.httpServer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	select {
	case <-app.WatermillRouter.Running():
	case <-time.After(5 * time.Second):
		t.Fatal("router did not start")
	}
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}
