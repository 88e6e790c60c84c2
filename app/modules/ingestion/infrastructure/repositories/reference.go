package ingestiondb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/uptrace/bun"
)

// RepositoryImpl implements Repository on bun.
type RepositoryImpl struct {
	DB *bun.DB
}

var _ Repository = (*RepositoryImpl)(nil)

func normalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

func (r *RepositoryImpl) FindTeamIDByName(ctx context.Context, name string) (int64, error) {
	var id int64
	err := r.DB.NewSelect().
		Model((*Team)(nil)).
		Column("id").
		Where("lower(name) = ?", normalizeLabel(name)).
		Scan(ctx, &id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("failed to look up team %q: %w", name, err)
	}
	return id, nil
}

func (r *RepositoryImpl) FindSeasonIDByLabel(ctx context.Context, label string) (int64, error) {
	var id int64
	err := r.DB.NewSelect().
		Model((*Season)(nil)).
		Column("id").
		Where("lower(label) = ?", normalizeLabel(label)).
		Scan(ctx, &id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("failed to look up season %q: %w", label, err)
	}
	return id, nil
}

func (r *RepositoryImpl) FindAgeGroupIDByLabel(ctx context.Context, label string) (int64, error) {
	var id int64
	err := r.DB.NewSelect().
		Model((*AgeGroup)(nil)).
		Column("id").
		Where("lower(label) = ?", normalizeLabel(label)).
		Scan(ctx, &id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("failed to look up age group %q: %w", label, err)
	}
	return id, nil
}

func (r *RepositoryImpl) FindMatchTypeIDByLabel(ctx context.Context, label string) (int64, error) {
	var id int64
	err := r.DB.NewSelect().
		Model((*MatchType)(nil)).
		Column("id").
		Where("lower(label) = ?", normalizeLabel(label)).
		Scan(ctx, &id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("failed to look up match type %q: %w", label, err)
	}
	return id, nil
}

func (r *RepositoryImpl) FindDivisionIDByName(ctx context.Context, name string) (int64, error) {
	var id int64
	err := r.DB.NewSelect().
		Model((*Division)(nil)).
		Column("id").
		Where("lower(name) = ?", normalizeLabel(name)).
		Scan(ctx, &id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("failed to look up division %q: %w", name, err)
	}
	return id, nil
}

// CreateTeam inserts a team, returning the surviving row's id when another
// writer created the same name first. Conflicts are detected on lower(name)
// so case variants collapse onto one row, keeping the stored spelling.
func (r *RepositoryImpl) CreateTeam(ctx context.Context, name string) (int64, error) {
	team := &Team{Name: strings.TrimSpace(name)}

	_, err := r.DB.NewInsert().
		Model(team).
		On("CONFLICT (lower(name)) DO UPDATE").
		Set("name = t.name").
		Returning("id").
		Exec(ctx, &team.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to create team %q: %w", name, err)
	}
	return team.ID, nil
}
