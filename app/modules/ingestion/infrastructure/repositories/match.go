package ingestiondb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

func (r *RepositoryImpl) FindByExternalID(ctx context.Context, externalID string) (*Match, error) {
	match := new(Match)
	err := r.DB.NewSelect().
		Model(match).
		Where("external_match_id = ?", externalID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch match by external id %q: %w", externalID, err)
	}
	return match, nil
}

func (r *RepositoryImpl) FindByFixture(ctx context.Context, homeTeamID, awayTeamID int64, date time.Time) (*Match, error) {
	match := new(Match)
	err := r.DB.NewSelect().
		Model(match).
		Where("home_team_id = ?", homeTeamID).
		Where("away_team_id = ?", awayTeamID).
		Where("match_date = ?", date.Format("2006-01-02")).
		Order("id ASC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch match by fixture: %w", err)
	}
	return match, nil
}

// UpsertByExternalID writes the match in a single INSERT ... ON CONFLICT
// statement so that two workers racing on the same external id cannot create
// two rows. The DO UPDATE clause only fires when a mutable field actually
// differs; a no-op conflict returns no row, which maps to ActionUnchanged.
func (r *RepositoryImpl) UpsertByExternalID(ctx context.Context, match *Match) (UpsertResult, error) {
	if match.ExternalMatchID == nil {
		return UpsertResult{}, fmt.Errorf("match has no external id; use the fixture fallback path")
	}

	var (
		id       int64
		inserted bool
	)
	_, err := r.DB.NewInsert().
		Model(match).
		On("CONFLICT (external_match_id) WHERE external_match_id IS NOT NULL DO UPDATE").
		Set("status = EXCLUDED.status").
		Set("home_score = EXCLUDED.home_score").
		Set("away_score = EXCLUDED.away_score").
		Set("updated_at = now()").
		Where("(m.status, m.home_score, m.away_score) IS DISTINCT FROM (EXCLUDED.status, EXCLUDED.home_score, EXCLUDED.away_score)").
		Returning("id, (xmax = 0)").
		Exec(ctx, &id, &inserted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Conflict hit but nothing differed. Fetch the surviving row so
			// the caller can report its id.
			existing, ferr := r.FindByExternalID(ctx, *match.ExternalMatchID)
			if ferr != nil {
				return UpsertResult{}, fmt.Errorf("upsert was a no-op but row fetch failed: %w", ferr)
			}
			return UpsertResult{MatchID: existing.ID, Action: ActionUnchanged}, nil
		}
		return UpsertResult{}, fmt.Errorf("failed to upsert match %q: %w", *match.ExternalMatchID, err)
	}

	action := ActionUpdated
	if inserted {
		action = ActionCreated
	}
	return UpsertResult{MatchID: id, Action: action}, nil
}

func (r *RepositoryImpl) InsertMatch(ctx context.Context, match *Match) (int64, error) {
	_, err := r.DB.NewInsert().
		Model(match).
		Returning("id").
		Exec(ctx, &match.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert match: %w", err)
	}
	return match.ID, nil
}

func (r *RepositoryImpl) UpdateMutable(ctx context.Context, matchID int64, status string, homeScore, awayScore *int) error {
	res, err := r.DB.NewUpdate().
		Model((*Match)(nil)).
		Set("status = ?", status).
		Set("home_score = ?", homeScore).
		Set("away_score = ?", awayScore).
		Set("updated_at = now()").
		Where("id = ?", matchID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update match %d: %w", matchID, err)
	}

	rows, err := res.RowsAffected()
	if err == nil && rows == 0 {
		return ErrNotFound
	}
	return nil
}
