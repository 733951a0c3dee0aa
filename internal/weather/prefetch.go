package weather

import (
	"context"
	"log"
	"time"

	"github.com/jaehong-maker/Smart-Diffuser-Project/internal/region"
)

// Prefetcher keeps the nowcast cache warm for regions devices commonly ask about,
// so device requests rarely wait on the provider.
type Prefetcher struct {
	fetcher  Fetcher
	catalog  *region.Catalog
	regions  []string
	interval time.Duration
	now      func() time.Time
}

// NewPrefetcher creates a cache warmer. now supplies the zoned clock used for base times.
// Names missing from catalog are dropped.
func NewPrefetcher(fetcher Fetcher, catalog *region.Catalog, regions []string, interval time.Duration, now func() time.Time) *Prefetcher {
	known := make([]string, 0, len(regions))
	for _, name := range regions {
		if !catalog.Has(name) {
			log.Printf("Weather prefetch skipping unknown region %q", name)
			continue
		}
		known = append(known, name)
	}
	return &Prefetcher{
		fetcher:  fetcher,
		catalog:  catalog,
		regions:  known,
		interval: interval,
		now:      now,
	}
}

// Run prefetches once, then on every interval until ctx is cancelled.
func (p *Prefetcher) Run(ctx context.Context) {
	if len(p.regions) == 0 {
		log.Println("Weather prefetch has no regions. Not starting.")
		return
	}
	log.Printf("Starting weather prefetch for %d regions every %s", len(p.regions), p.interval)

	p.PrefetchOnce(ctx)

	timer := time.NewTimer(p.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Weather prefetch shutting down.")
			return
		case <-timer.C:
			p.PrefetchOnce(ctx)
			timer.Reset(p.interval)
		}
	}
}

// PrefetchOnce fetches every configured region and returns how many succeeded.
func (p *Prefetcher) PrefetchOnce(ctx context.Context) int {
	baseDate, baseTime := BaseDateTime(p.now())
	// Regions sharing a grid cell are fetched once.
	done := make(map[region.Coords]bool)
	ok := 0
	for _, name := range p.regions {
		resolved, coords := p.catalog.Lookup(name)
		if done[coords] {
			continue
		}
		done[coords] = true

		if _, err := p.fetcher.Fetch(ctx, coords, baseDate, baseTime); err != nil {
			log.Printf("Error prefetching weather for %s: %v", resolved, err)
			continue
		}
		ok++
	}
	return ok
}
