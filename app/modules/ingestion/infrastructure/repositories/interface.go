package ingestiondb

import (
	"context"
	"time"
)

// UpsertAction is the action the store applied for a match write.
type UpsertAction string

const (
	ActionCreated   UpsertAction = "created"
	ActionUpdated   UpsertAction = "updated"
	ActionUnchanged UpsertAction = "unchanged"
)

// UpsertResult reports what the atomic natural-key upsert did.
type UpsertResult struct {
	MatchID int64
	Action  UpsertAction
}

// Repository is the relational boundary of the ingestion pipeline. Lookups
// are read-committed-consistent; UpsertByExternalID is atomic with respect
// to the external_match_id uniqueness constraint under concurrent callers.
type Repository interface {
	// Reference lookups. Exact, case-normalized matches; ErrNotFound when
	// the label has no row.
	FindTeamIDByName(ctx context.Context, name string) (int64, error)
	FindSeasonIDByLabel(ctx context.Context, label string) (int64, error)
	FindAgeGroupIDByLabel(ctx context.Context, label string) (int64, error)
	FindMatchTypeIDByLabel(ctx context.Context, label string) (int64, error)
	FindDivisionIDByName(ctx context.Context, name string) (int64, error)

	// CreateTeam inserts a team row, returning the existing id when the
	// name already exists. Used only by the auto-provisioning policy.
	CreateTeam(ctx context.Context, name string) (int64, error)

	// FindByExternalID returns the match row with the given natural key.
	FindByExternalID(ctx context.Context, externalID string) (*Match, error)

	// FindByFixture is the best-effort fallback key for submissions without
	// an external match id.
	FindByFixture(ctx context.Context, homeTeamID, awayTeamID int64, date time.Time) (*Match, error)

	// UpsertByExternalID inserts the match or updates its mutable fields in
	// a single constraint-backed statement.
	UpsertByExternalID(ctx context.Context, match *Match) (UpsertResult, error)

	// InsertMatch inserts a match row without conflict handling (fallback
	// path only).
	InsertMatch(ctx context.Context, match *Match) (int64, error)

	// UpdateMutable updates status and scores of an existing row.
	UpdateMutable(ctx context.Context, matchID int64, status string, homeScore, awayScore *int) error
}
