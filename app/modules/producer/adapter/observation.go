package produceradapter

import (
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// Observation is a raw scraped match as the scraper saw it: free-text
// everything, dates in whatever shape the source site used.
type Observation struct {
	HomeTeam   string
	AwayTeam   string
	Date       string
	Season     string
	AgeGroup   string
	MatchType  string
	Division   string
	HomeScore  *int
	AwayScore  *int
	Status     string
	ExternalID string
	Location   string
	Notes      string
}

// dateLayouts are the strict formats tried before handing the text to the
// natural-language parser.
var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
}

func newDateParser() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}

// normalizeDate turns a scraped date string into ISO 8601. Strict layouts
// win; anything else goes through the natural-language parser relative to
// now.
func normalizeDate(parser *when.Parser, raw string, now time.Time) (string, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", fmt.Errorf("empty date")
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t.Format("2006-01-02"), nil
		}
	}

	result, err := parser.Parse(text, now)
	if err != nil {
		return "", fmt.Errorf("failed to parse date %q: %w", raw, err)
	}
	if result == nil {
		return "", fmt.Errorf("unrecognized date %q", raw)
	}
	return result.Time.Format("2006-01-02"), nil
}
