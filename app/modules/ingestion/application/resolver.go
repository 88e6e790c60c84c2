package ingestionservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Lakeshore-Soccer-Club/matchsync/app/modules/ingestion/contract"
	ingestiondb "github.com/Lakeshore-Soccer-Club/matchsync/app/modules/ingestion/infrastructure/repositories"
)

// ResolvedMatch is a match message with every free-text label replaced by a
// verified surrogate key.
type ResolvedMatch struct {
	HomeTeamID      int64
	AwayTeamID      int64
	SeasonID        int64
	AgeGroupID      int64
	MatchTypeID     int64
	DivisionID      *int64
	MatchDate       time.Time
	Status          string
	HomeScore       *int
	AwayScore       *int
	ExternalMatchID *string
	Location        *string
	Notes           *string
}

// TeamPolicy decides what happens when a team name has no reference row.
// The default rejects; an auto-provisioning policy may create the team.
type TeamPolicy interface {
	ResolveMissing(ctx context.Context, name string) (int64, error)
}

type failClosedTeamPolicy struct{}

func (failClosedTeamPolicy) ResolveMissing(_ context.Context, name string) (int64, error) {
	return 0, UnknownTeam(name)
}

// FailClosedTeamPolicy rejects unknown team names.
func FailClosedTeamPolicy() TeamPolicy {
	return failClosedTeamPolicy{}
}

type autoCreateTeamPolicy struct {
	repo ingestiondb.Repository
}

func (p autoCreateTeamPolicy) ResolveMissing(ctx context.Context, name string) (int64, error) {
	return p.repo.CreateTeam(ctx, name)
}

// AutoCreateTeamPolicy provisions missing teams on first sight. Enable only
// for trusted producers.
func AutoCreateTeamPolicy(repo ingestiondb.Repository) TeamPolicy {
	return autoCreateTeamPolicy{repo: repo}
}

// Resolver maps the free-text labels of a contract-valid message onto
// reference-table keys. Resolution is read-only except for the team policy.
type Resolver struct {
	repo       ingestiondb.Repository
	teamPolicy TeamPolicy
}

// NewResolver builds a resolver with the given missing-team policy.
func NewResolver(repo ingestiondb.Repository, teamPolicy TeamPolicy) *Resolver {
	return &Resolver{repo: repo, teamPolicy: teamPolicy}
}

// Resolve verifies every reference in the message. Business failures come
// back as *ResolutionError; anything else is an infrastructure error and the
// message should be redelivered.
func (r *Resolver) Resolve(ctx context.Context, msg *contract.MatchMessage) (*ResolvedMatch, error) {
	homeID, err := r.resolveTeam(ctx, msg.HomeTeam)
	if err != nil {
		return nil, err
	}

	awayID, err := r.resolveTeam(ctx, msg.AwayTeam)
	if err != nil {
		return nil, err
	}

	seasonID, err := r.repo.FindSeasonIDByLabel(ctx, msg.Season)
	if err != nil {
		if errors.Is(err, ingestiondb.ErrNotFound) {
			return nil, UnknownSeason(msg.Season)
		}
		return nil, err
	}

	ageGroupID, err := r.repo.FindAgeGroupIDByLabel(ctx, msg.AgeGroup)
	if err != nil {
		if errors.Is(err, ingestiondb.ErrNotFound) {
			return nil, UnknownAgeGroup(msg.AgeGroup)
		}
		return nil, err
	}

	matchTypeID, err := r.repo.FindMatchTypeIDByLabel(ctx, msg.MatchType)
	if err != nil {
		if errors.Is(err, ingestiondb.ErrNotFound) {
			return nil, UnknownMatchType(msg.MatchType)
		}
		return nil, err
	}

	var divisionID *int64
	if msg.IsLeague() {
		// Contract validation already rejects a missing division, but the
		// consumer must not rely on producers being honest.
		if msg.Division == nil || *msg.Division == "" {
			return nil, MissingDivisionForLeagueMatch()
		}
	}
	if msg.Division != nil && *msg.Division != "" {
		id, err := r.repo.FindDivisionIDByName(ctx, *msg.Division)
		if err != nil {
			if errors.Is(err, ingestiondb.ErrNotFound) {
				return nil, UnknownDivision(*msg.Division)
			}
			return nil, err
		}
		divisionID = &id
	}

	matchDate, err := time.Parse("2006-01-02", msg.Date)
	if err != nil {
		return nil, fmt.Errorf("failed to parse match date %q: %w", msg.Date, err)
	}

	return &ResolvedMatch{
		HomeTeamID:      homeID,
		AwayTeamID:      awayID,
		SeasonID:        seasonID,
		AgeGroupID:      ageGroupID,
		MatchTypeID:     matchTypeID,
		DivisionID:      divisionID,
		MatchDate:       matchDate,
		Status:          inferStatus(msg),
		HomeScore:       msg.ScoreHome,
		AwayScore:       msg.ScoreAway,
		ExternalMatchID: msg.MatchID,
		Location:        msg.Location,
		Notes:           msg.Notes,
	}, nil
}

func (r *Resolver) resolveTeam(ctx context.Context, name string) (int64, error) {
	id, err := r.repo.FindTeamIDByName(ctx, name)
	if err == nil {
		return id, nil
	}
	if errors.Is(err, ingestiondb.ErrNotFound) {
		return r.teamPolicy.ResolveMissing(ctx, name)
	}
	return 0, err
}

// inferStatus defaults an absent status from score presence: both scores
// recorded means the match was played.
func inferStatus(msg *contract.MatchMessage) string {
	if msg.Status != nil && *msg.Status != "" {
		return *msg.Status
	}
	if msg.ScoreHome != nil && msg.ScoreAway != nil {
		return contract.StatusCompleted
	}
	return contract.StatusScheduled
}
