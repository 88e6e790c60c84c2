package ingestionservice

import (
	"context"
	"strings"
	"time"

	ingestiondb "github.com/Lakeshore-Soccer-Club/matchsync/app/modules/ingestion/infrastructure/repositories"
	"github.com/Lakeshore-Soccer-Club/matchsync/app/modules/ingestion/infrastructure/taskstore"
)

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func ptr[T any](v T) *T {
	return &v
}

// ------------------------
// Fake ingestion repository
// ------------------------

// FakeRepository provides a programmable stub for the ingestiondb.Repository
// interface.
type FakeRepository struct {
	trace []string

	FindTeamIDByNameFn       func(ctx context.Context, name string) (int64, error)
	FindSeasonIDByLabelFn    func(ctx context.Context, label string) (int64, error)
	FindAgeGroupIDByLabelFn  func(ctx context.Context, label string) (int64, error)
	FindMatchTypeIDByLabelFn func(ctx context.Context, label string) (int64, error)
	FindDivisionIDByNameFn   func(ctx context.Context, name string) (int64, error)
	CreateTeamFn             func(ctx context.Context, name string) (int64, error)
	FindByExternalIDFn       func(ctx context.Context, externalID string) (*ingestiondb.Match, error)
	FindByFixtureFn          func(ctx context.Context, homeTeamID, awayTeamID int64, date time.Time) (*ingestiondb.Match, error)
	UpsertByExternalIDFn     func(ctx context.Context, match *ingestiondb.Match) (ingestiondb.UpsertResult, error)
	InsertMatchFn            func(ctx context.Context, match *ingestiondb.Match) (int64, error)
	UpdateMutableFn          func(ctx context.Context, matchID int64, status string, homeScore, awayScore *int) error
}

// NewFakeRepository initializes a new FakeRepository.
func NewFakeRepository() *FakeRepository {
	return &FakeRepository{trace: []string{}}
}

// Trace returns the sequence of method calls made to the fake.
func (f *FakeRepository) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeRepository) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeRepository) FindTeamIDByName(ctx context.Context, name string) (int64, error) {
	f.record("FindTeamIDByName")
	if f.FindTeamIDByNameFn != nil {
		return f.FindTeamIDByNameFn(ctx, name)
	}
	return 0, ingestiondb.ErrNotFound
}

func (f *FakeRepository) FindSeasonIDByLabel(ctx context.Context, label string) (int64, error) {
	f.record("FindSeasonIDByLabel")
	if f.FindSeasonIDByLabelFn != nil {
		return f.FindSeasonIDByLabelFn(ctx, label)
	}
	return 0, ingestiondb.ErrNotFound
}

func (f *FakeRepository) FindAgeGroupIDByLabel(ctx context.Context, label string) (int64, error) {
	f.record("FindAgeGroupIDByLabel")
	if f.FindAgeGroupIDByLabelFn != nil {
		return f.FindAgeGroupIDByLabelFn(ctx, label)
	}
	return 0, ingestiondb.ErrNotFound
}

func (f *FakeRepository) FindMatchTypeIDByLabel(ctx context.Context, label string) (int64, error) {
	f.record("FindMatchTypeIDByLabel")
	if f.FindMatchTypeIDByLabelFn != nil {
		return f.FindMatchTypeIDByLabelFn(ctx, label)
	}
	return 0, ingestiondb.ErrNotFound
}

func (f *FakeRepository) FindDivisionIDByName(ctx context.Context, name string) (int64, error) {
	f.record("FindDivisionIDByName")
	if f.FindDivisionIDByNameFn != nil {
		return f.FindDivisionIDByNameFn(ctx, name)
	}
	return 0, ingestiondb.ErrNotFound
}

func (f *FakeRepository) CreateTeam(ctx context.Context, name string) (int64, error) {
	f.record("CreateTeam")
	if f.CreateTeamFn != nil {
		return f.CreateTeamFn(ctx, name)
	}
	return 0, nil
}

func (f *FakeRepository) FindByExternalID(ctx context.Context, externalID string) (*ingestiondb.Match, error) {
	f.record("FindByExternalID")
	if f.FindByExternalIDFn != nil {
		return f.FindByExternalIDFn(ctx, externalID)
	}
	return nil, ingestiondb.ErrNotFound
}

func (f *FakeRepository) FindByFixture(ctx context.Context, homeTeamID, awayTeamID int64, date time.Time) (*ingestiondb.Match, error) {
	f.record("FindByFixture")
	if f.FindByFixtureFn != nil {
		return f.FindByFixtureFn(ctx, homeTeamID, awayTeamID, date)
	}
	return nil, ingestiondb.ErrNotFound
}

func (f *FakeRepository) UpsertByExternalID(ctx context.Context, match *ingestiondb.Match) (ingestiondb.UpsertResult, error) {
	f.record("UpsertByExternalID")
	if f.UpsertByExternalIDFn != nil {
		return f.UpsertByExternalIDFn(ctx, match)
	}
	return ingestiondb.UpsertResult{}, nil
}

func (f *FakeRepository) InsertMatch(ctx context.Context, match *ingestiondb.Match) (int64, error) {
	f.record("InsertMatch")
	if f.InsertMatchFn != nil {
		return f.InsertMatchFn(ctx, match)
	}
	return 0, nil
}

func (f *FakeRepository) UpdateMutable(ctx context.Context, matchID int64, status string, homeScore, awayScore *int) error {
	f.record("UpdateMutable")
	if f.UpdateMutableFn != nil {
		return f.UpdateMutableFn(ctx, matchID, status, homeScore, awayScore)
	}
	return nil
}

// referenceRepository returns a fake preloaded with the reference data most
// tests need.
func referenceRepository() *FakeRepository {
	repo := NewFakeRepository()
	teams := map[string]int64{"lakeside united": 1, "harbor rovers": 2}
	repo.FindTeamIDByNameFn = func(_ context.Context, name string) (int64, error) {
		if id, ok := teams[normalize(name)]; ok {
			return id, nil
		}
		return 0, ingestiondb.ErrNotFound
	}
	repo.FindSeasonIDByLabelFn = func(_ context.Context, label string) (int64, error) {
		if normalize(label) == "2025/2026" {
			return 10, nil
		}
		return 0, ingestiondb.ErrNotFound
	}
	repo.FindAgeGroupIDByLabelFn = func(_ context.Context, label string) (int64, error) {
		if normalize(label) == "u15" {
			return 20, nil
		}
		return 0, ingestiondb.ErrNotFound
	}
	repo.FindMatchTypeIDByLabelFn = func(_ context.Context, label string) (int64, error) {
		switch normalize(label) {
		case "league":
			return 30, nil
		case "friendly":
			return 31, nil
		}
		return 0, ingestiondb.ErrNotFound
	}
	repo.FindDivisionIDByNameFn = func(_ context.Context, name string) (int64, error) {
		if normalize(name) == "division a" {
			return 40, nil
		}
		return 0, ingestiondb.ErrNotFound
	}
	return repo
}

// ------------------------
// Fake task store
// ------------------------

// FakeTaskStore keeps task results in a map and allows failure injection.
type FakeTaskStore struct {
	Results map[string]*taskstore.TaskResult

	CreatePendingFn func(ctx context.Context, taskID string) error
	MarkSuccessFn   func(ctx context.Context, taskID string, result taskstore.Success) error
	MarkFailureFn   func(ctx context.Context, taskID string, failure taskstore.Failure) error
	GetFn           func(ctx context.Context, taskID string) (*taskstore.TaskResult, error)
}

// NewFakeTaskStore initializes a new FakeTaskStore.
func NewFakeTaskStore() *FakeTaskStore {
	return &FakeTaskStore{Results: map[string]*taskstore.TaskResult{}}
}

func (f *FakeTaskStore) CreatePending(ctx context.Context, taskID string) error {
	if f.CreatePendingFn != nil {
		return f.CreatePendingFn(ctx, taskID)
	}
	f.Results[taskID] = &taskstore.TaskResult{
		TaskID:    taskID,
		State:     taskstore.StatePending,
		UpdatedAt: time.Now().UTC(),
	}
	return nil
}

func (f *FakeTaskStore) MarkSuccess(ctx context.Context, taskID string, result taskstore.Success) error {
	if f.MarkSuccessFn != nil {
		return f.MarkSuccessFn(ctx, taskID, result)
	}
	f.Results[taskID] = &taskstore.TaskResult{
		TaskID:    taskID,
		State:     taskstore.StateSuccess,
		Result:    &result,
		UpdatedAt: time.Now().UTC(),
	}
	return nil
}

func (f *FakeTaskStore) MarkFailure(ctx context.Context, taskID string, failure taskstore.Failure) error {
	if f.MarkFailureFn != nil {
		return f.MarkFailureFn(ctx, taskID, failure)
	}
	f.Results[taskID] = &taskstore.TaskResult{
		TaskID:    taskID,
		State:     taskstore.StateFailure,
		Error:     &failure,
		UpdatedAt: time.Now().UTC(),
	}
	return nil
}

func (f *FakeTaskStore) Get(ctx context.Context, taskID string) (*taskstore.TaskResult, error) {
	if f.GetFn != nil {
		return f.GetFn(ctx, taskID)
	}
	result, ok := f.Results[taskID]
	if !ok {
		return nil, taskstore.ErrNotFound
	}
	return result, nil
}
