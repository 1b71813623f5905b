// internal/service/lead/stats.go
package lead

import (
	"context"
	"math"
	"sync"
	"time"

	"crm-service/internal/domain/lead"
)

// recentWindow is the trailing window the dashboard's "recent leads" figure
// covers.
const recentWindow = 7 * 24 * time.Hour

// Stats aggregates the whole lead collection. The four store round-trips
// run concurrently and the call joins on all of them; any failure fails the
// whole computation.
func (s *Service) Stats(ctx context.Context) (*lead.Stats, error) {
	var (
		wg       sync.WaitGroup
		total    int64
		recent   int64
		byStatus map[lead.Status]int64
		bySource map[lead.Source]int64

		mu       sync.Mutex
		firstErr error
	)

	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	since := time.Now().UTC().Add(-recentWindow)

	wg.Add(4)
	go func() {
		defer wg.Done()
		n, err := s.repo.Count(ctx)
		if err != nil {
			fail(err)
			return
		}
		total = n
	}()
	go func() {
		defer wg.Done()
		n, err := s.repo.CountCreatedSince(ctx, since)
		if err != nil {
			fail(err)
			return
		}
		recent = n
	}()
	go func() {
		defer wg.Done()
		m, err := s.repo.CountByStatus(ctx)
		if err != nil {
			fail(err)
			return
		}
		byStatus = m
	}()
	go func() {
		defer wg.Done()
		m, err := s.repo.CountBySource(ctx)
		if err != nil {
			fail(err)
			return
		}
		bySource = m
	}()
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	if byStatus == nil {
		byStatus = map[lead.Status]int64{}
	}
	if bySource == nil {
		bySource = map[lead.Source]int64{}
	}

	// Defined as exactly 0 on an empty collection.
	conversionRate := 0.0
	if total > 0 {
		converted := byStatus[lead.StatusConverted]
		conversionRate = math.Round(float64(converted)/float64(total)*100*100) / 100
	}

	return &lead.Stats{
		Total:          total,
		RecentLeads:    recent,
		ConversionRate: conversionRate,
		ByStatus:       byStatus,
		BySource:       bySource,
	}, nil
}
