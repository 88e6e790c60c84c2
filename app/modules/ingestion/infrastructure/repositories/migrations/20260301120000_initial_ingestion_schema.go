package ingestionmigrations

import (
	"context"

	"github.com/uptrace/bun"

	ingestiondb "github.com/Lakeshore-Soccer-Club/matchsync/app/modules/ingestion/infrastructure/repositories"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		models := []any{
			(*ingestiondb.Team)(nil),
			(*ingestiondb.Season)(nil),
			(*ingestiondb.AgeGroup)(nil),
			(*ingestiondb.MatchType)(nil),
			(*ingestiondb.Division)(nil),
			(*ingestiondb.Match)(nil),
		}
		for _, model := range models {
			if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
				return err
			}
		}

		// Partial unique index: the constraint backstop for natural-key
		// deduplication. The ON CONFLICT target in the upsert must match it.
		if _, err := db.ExecContext(ctx, `
			CREATE UNIQUE INDEX IF NOT EXISTS matches_external_match_id_uq
			ON matches (external_match_id)
			WHERE external_match_id IS NOT NULL
		`); err != nil {
			return err
		}

		if _, err := db.ExecContext(ctx, `
			CREATE INDEX IF NOT EXISTS matches_fixture_idx
			ON matches (home_team_id, away_team_id, match_date)
		`); err != nil {
			return err
		}

		// Team names are unique case-insensitively so auto-provisioning
		// cannot create "FC Foo" and "fc foo" side by side. CreateTeam
		// conflicts on this index.
		if _, err := db.ExecContext(ctx, `
			CREATE UNIQUE INDEX IF NOT EXISTS teams_lower_name_uq
			ON teams (lower(name))
		`); err != nil {
			return err
		}

		// Lookups are case-normalized.
		stmts := []string{
			`CREATE INDEX IF NOT EXISTS seasons_lower_label_idx ON seasons (lower(label))`,
			`CREATE INDEX IF NOT EXISTS age_groups_lower_label_idx ON age_groups (lower(label))`,
			`CREATE INDEX IF NOT EXISTS match_types_lower_label_idx ON match_types (lower(label))`,
			`CREATE INDEX IF NOT EXISTS divisions_lower_name_idx ON divisions (lower(name))`,
		}
		for _, stmt := range stmts {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		models := []any{
			(*ingestiondb.Match)(nil),
			(*ingestiondb.Division)(nil),
			(*ingestiondb.MatchType)(nil),
			(*ingestiondb.AgeGroup)(nil),
			(*ingestiondb.Season)(nil),
			(*ingestiondb.Team)(nil),
		}
		for _, model := range models {
			if _, err := db.NewDropTable().Model(model).IfExists().Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
}
