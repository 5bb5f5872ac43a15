package stravastats

import (
	"context"

	"github.com/maypok86/otter/v2"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultPerPage is the listing page size
	DefaultPerPage = 50
	maxSeen        = 100_000
)

// Fetcher lists activities and fetches their details
type Fetcher interface {
	ListActivities(ctx context.Context, page, perPage int) ([]*ActivitySummary, error)
	Activity(ctx context.Context, id int64) (*Activity, error)
}

// Collector walks the activity listing and fetches the details of every listed activity
type Collector struct {
	fetcher  Fetcher
	perPage  int
	maxPages int
}

// NewCollector returns a Collector. A maxPages of zero or less walks the listing until an empty page.
func NewCollector(fetcher Fetcher, perPage, maxPages int) *Collector {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	return &Collector{fetcher: fetcher, perPage: perPage, maxPages: maxPages}
}

// Collect returns the normalized records of all listed activities in listing order.
// Any failure aborts the walk and no records are returned.
func (b *Collector) Collect(ctx context.Context) ([]*Record, error) {
	seen := otter.Must(&otter.Options[int64, struct{}]{MaximumSize: maxSeen})
	var records []*Record
	for page := 1; b.maxPages <= 0 || page <= b.maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		acts, err := b.fetcher.ListActivities(ctx, page, b.perPage)
		if err != nil {
			return nil, err
		}
		if len(acts) == 0 {
			break
		}
		for _, act := range acts {
			if _, ok := seen.GetIfPresent(act.ID); ok {
				log.Warn().Int64("id", act.ID).Int("page", page).Msg("duplicate")
				continue
			}
			seen.Set(act.ID, struct{}{})
			log.Info().Str("name", act.Name).Int64("id", act.ID).Msg("query")
			detail, err := b.fetcher.Activity(ctx, act.ID)
			if err != nil {
				return nil, err
			}
			records = append(records, Normalize(detail))
		}
	}
	return records, nil
}
