package report

import (
	"time"

	"github.com/calcore/davcore/internal/filter"
)

func compFilterWithTimeRange(compName string, start, end time.Time) filter.CompFilter {
	return filter.CompFilter{
		Name:      compName,
		TimeRange: &filter.TimeRange{Start: start, End: end},
	}
}

func cardFilterFNContains(text string) filter.CardFilter {
	return filter.CardFilter{
		Test: filter.TestAnyOf,
		Props: []filter.CardPropFilter{
			{
				Name: "FN",
				TextMatches: []filter.TextMatch{
					{Text: text, MatchType: filter.MatchContains},
				},
			},
		},
	}
}
