package ingestiondb

import (
	"time"

	"github.com/uptrace/bun"
)

// Team is a club team referenced by free-text name in submissions. Names are
// unique case-insensitively via the teams_lower_name_uq index, which is also
// the conflict target of CreateTeam.
type Team struct {
	bun.BaseModel `bun:"table:teams,alias:t"`

	ID        int64     `bun:"id,pk,autoincrement"`
	Name      string    `bun:"name,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// Season is a reference row for season labels such as "2024-25".
type Season struct {
	bun.BaseModel `bun:"table:seasons,alias:s"`

	ID    int64  `bun:"id,pk,autoincrement"`
	Label string `bun:"label,notnull,unique"`
}

// AgeGroup is a reference row for age-group labels such as "U14".
type AgeGroup struct {
	bun.BaseModel `bun:"table:age_groups,alias:ag"`

	ID    int64  `bun:"id,pk,autoincrement"`
	Label string `bun:"label,notnull,unique"`
}

// MatchType is a reference row for match-type labels such as "League" or
// "Friendly".
type MatchType struct {
	bun.BaseModel `bun:"table:match_types,alias:mt"`

	ID    int64  `bun:"id,pk,autoincrement"`
	Label string `bun:"label,notnull,unique"`
}

// Division is a reference row for division names such as "Northeast".
type Division struct {
	bun.BaseModel `bun:"table:divisions,alias:d"`

	ID   int64  `bun:"id,pk,autoincrement"`
	Name string `bun:"name,notnull,unique"`
}

// Match is the persisted match row. ExternalMatchID carries the scraper's
// natural key and is enforced unique by a partial index, which is the
// constraint backstop for concurrent redeliveries.
type Match struct {
	bun.BaseModel `bun:"table:matches,alias:m"`

	ID              int64      `bun:"id,pk,autoincrement"`
	ExternalMatchID *string    `bun:"external_match_id"`
	HomeTeamID      int64      `bun:"home_team_id,notnull"`
	AwayTeamID      int64      `bun:"away_team_id,notnull"`
	SeasonID        int64      `bun:"season_id,notnull"`
	AgeGroupID      int64      `bun:"age_group_id,notnull"`
	MatchTypeID     int64      `bun:"match_type_id,notnull"`
	DivisionID      *int64     `bun:"division_id"`
	MatchDate       time.Time  `bun:"match_date,type:date,notnull"`
	Status          string     `bun:"status,notnull"`
	HomeScore       *int       `bun:"home_score"`
	AwayScore       *int       `bun:"away_score"`
	Location        *string    `bun:"location"`
	Notes           *string    `bun:"notes"`
	CreatedAt       time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt       time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// MutableEqual reports whether the comparable mutable fields (status and
// scores) of the two rows are field-for-field equal.
func (m *Match) MutableEqual(other *Match) bool {
	return m.Status == other.Status &&
		intPtrEqual(m.HomeScore, other.HomeScore) &&
		intPtrEqual(m.AwayScore, other.AwayScore)
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
