package report

import (
	"time"

	"github.com/tokscale/tokscale/internal/stats"
	"github.com/tokscale/tokscale/internal/version"
)

// GraphExport is the contribution-graph payload. Field order is part
// of the format: meta, summary, years, contributions.
type GraphExport struct {
	Meta          GraphMeta           `json:"meta"`
	Summary       stats.Summary       `json:"summary"`
	Years         []YearSummary       `json:"years"`
	Contributions []GraphContribution `json:"contributions"`
}

type GraphMeta struct {
	GeneratedAt      string `json:"generatedAt"`
	Tool             string `json:"tool"`
	Version          string `json:"version"`
	ProcessingTimeMS int64  `json:"processingTimeMs"`
}

// YearSummary is one calendar year of totals.
type YearSummary struct {
	Year     string  `json:"year"`
	Tokens   int64   `json:"tokens"`
	Cost     float64 `json:"cost"`
	Messages int64   `json:"messages"`
	Days     int     `json:"days"`
}

// GraphContribution is one day. Intensity is the bucketed 0-4 integer;
// Ratio is the raw cost fraction of the busiest day, for renderers
// that want a smooth gradient instead of buckets.
type GraphContribution struct {
	Date      string  `json:"date"`
	Tokens    int64   `json:"tokens"`
	Cost      float64 `json:"cost"`
	Messages  int64   `json:"messages"`
	Intensity int     `json:"intensity"`
	Ratio     float64 `json:"ratio"`
}

// Graph derives the contribution-graph export from a report.
func (r *Report) Graph() GraphExport {
	maxCost := 0.0
	for _, d := range r.Daily {
		if d.Totals.Cost > maxCost {
			maxCost = d.Totals.Cost
		}
	}

	var years []YearSummary
	contribs := make([]GraphContribution, 0, len(r.Daily))
	for _, d := range r.Daily {
		ratio := 0.0
		if maxCost > 0 {
			ratio = d.Totals.Cost / maxCost
		}
		contribs = append(contribs, GraphContribution{
			Date:      d.Date,
			Tokens:    d.Totals.Tokens,
			Cost:      d.Totals.Cost,
			Messages:  d.Totals.Messages,
			Intensity: d.Intensity,
			Ratio:     ratio,
		})

		if len(d.Date) < 4 {
			continue
		}
		// daily contributions are date-ascending, so years accrue in
		// ascending order too
		y := d.Date[:4]
		if len(years) == 0 || years[len(years)-1].Year != y {
			years = append(years, YearSummary{Year: y})
		}
		last := &years[len(years)-1]
		last.Tokens += d.Totals.Tokens
		last.Cost += d.Totals.Cost
		last.Messages += d.Totals.Messages
		last.Days++
	}

	return GraphExport{
		Meta: GraphMeta{
			GeneratedAt:      time.Now().UTC().Format(time.RFC3339),
			Tool:             "tokscale",
			Version:          version.Version,
			ProcessingTimeMS: r.ProcessingTimeMS,
		},
		Summary:       r.Summary,
		Years:         years,
		Contributions: contribs,
	}
}
