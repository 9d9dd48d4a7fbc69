package evidence

import (
	"sync"
	"testing"
)

func TestCacheStats(t *testing.T) {
	t.Run("ConcurrentCountersStayConsistent", func(t *testing.T) {
		cache := &SummaryCache{stats: &cacheStats{}}

		const workers = 8
		const perWorker = 1000

		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < perWorker; j++ {
					cache.stats.hits.Add(1)
					cache.stats.misses.Add(1)
					cache.Stats() // concurrent reads must not race
				}
			}()
		}
		wg.Wait()

		stats := cache.Stats()
		if stats.Hits != workers*perWorker {
			t.Errorf("Expected %d hits, got %d", workers*perWorker, stats.Hits)
		}
		if stats.Misses != workers*perWorker {
			t.Errorf("Expected %d misses, got %d", workers*perWorker, stats.Misses)
		}
		if stats.HitRate != 50.0 {
			t.Errorf("Expected 50%% hit rate, got %.1f", stats.HitRate)
		}
	})

	t.Run("EmptyStatsHaveZeroHitRate", func(t *testing.T) {
		cache := &SummaryCache{stats: &cacheStats{}}
		stats := cache.Stats()
		if stats.Hits != 0 || stats.Misses != 0 || stats.HitRate != 0 {
			t.Errorf("Expected zeroed stats, got %+v", stats)
		}
	})
}
