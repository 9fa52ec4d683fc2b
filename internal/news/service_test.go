package news

import (
	"context"
	"testing"
	"time"

	"github.com/temaptz/trade-agent/internal/store"
)

func TestDigestCache(t *testing.T) {
	cache := newDigestCache(200 * time.Millisecond)

	pair := "BTCUSDT"
	digest := Digest{
		Pair:      pair,
		Score:     0.8,
		Positive:  3,
		Timestamp: time.Now().UTC(),
	}

	// Test set and get
	cache.set(pair, digest)

	retrieved, found := cache.get(pair)
	if !found {
		t.Fatal("Expected to find cached digest")
	}

	if retrieved.Pair != pair {
		t.Errorf("Expected pair %s, got %s", pair, retrieved.Pair)
	}

	if retrieved.Score != 0.8 {
		t.Errorf("Expected score 0.8, got %f", retrieved.Score)
	}

	// Test expiration
	time.Sleep(400 * time.Millisecond)
	_, found = cache.get(pair)
	if found {
		t.Error("Expected cache entry to be expired")
	}
}

func TestServiceConfig(t *testing.T) {
	cfg := DefaultServiceConfig()

	if cfg.MaxArticles != 10 {
		t.Errorf("Expected MaxArticles to be 10, got %d", cfg.MaxArticles)
	}

	if cfg.CacheTTL != 5*time.Minute {
		t.Errorf("Expected CacheTTL to be 5 minutes, got %v", cfg.CacheTTL)
	}

	if !cfg.Enabled {
		t.Error("Expected Enabled to be true")
	}
}

func TestFromConfig(t *testing.T) {
	botCfg := &store.Config{}
	botCfg.News.UpdateIntervalSeconds = 120
	botCfg.News.MaxArticles = 7
	botCfg.News.MinRelevance = 0.4
	botCfg.News.Sources = []string{"https://www.coindesk.com"}

	cfg := FromConfig(botCfg)

	if cfg.CacheTTL != 2*time.Minute {
		t.Errorf("Expected CacheTTL 2 minutes, got %v", cfg.CacheTTL)
	}
	if cfg.MaxArticles != 7 {
		t.Errorf("Expected MaxArticles 7, got %d", cfg.MaxArticles)
	}
	if cfg.MinRelevance != 0.4 {
		t.Errorf("Expected MinRelevance 0.4, got %f", cfg.MinRelevance)
	}
	if len(cfg.Sources) != 1 {
		t.Errorf("Expected 1 source, got %d", len(cfg.Sources))
	}
}

func TestNewService(t *testing.T) {
	svc := NewService(DefaultServiceConfig())

	if svc == nil {
		t.Fatal("Expected service to be created")
	}

	if svc.scraper == nil {
		t.Error("Expected scraper to be initialized")
	}

	if svc.analyzer == nil {
		t.Error("Expected analyzer to be initialized")
	}

	if svc.cache == nil {
		t.Error("Expected cache to be initialized")
	}
}

func TestServiceDisabled(t *testing.T) {
	cfg := DefaultServiceConfig()
	cfg.Enabled = false

	svc := NewService(cfg)
	ctx := context.Background()

	digest, err := svc.GetDigest(ctx, "BTCUSDT")
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	if digest.Score != 0.5 {
		t.Errorf("Expected neutral score when disabled, got %f", digest.Score)
	}

	if digest.Summary != "News analysis disabled" {
		t.Errorf("Expected disabled message, got %s", digest.Summary)
	}
}

func TestCacheCleanup(t *testing.T) {
	cache := newDigestCache(100 * time.Millisecond)

	// Add some entries
	pairs := []string{"BTCUSDT", "ETHUSDT", "SOLUSDT"}
	for _, pair := range pairs {
		cache.set(pair, Digest{Pair: pair, Timestamp: time.Now().UTC()})
	}

	// Wait for expiration
	time.Sleep(200 * time.Millisecond)

	// Trigger cleanup
	cache.cleanup()

	// Check that all entries are removed
	cache.mu.RLock()
	count := len(cache.data)
	cache.mu.RUnlock()

	if count != 0 {
		t.Errorf("Expected 0 cache entries after cleanup, got %d", count)
	}
}

func TestGetCachedPairs(t *testing.T) {
	svc := NewService(DefaultServiceConfig())

	pairs := []string{"BTCUSDT", "ETHUSDT", "SOLUSDT"}
	for _, pair := range pairs {
		svc.cache.set(pair, Digest{Pair: pair, Timestamp: time.Now().UTC()})
	}

	cached := svc.GetCachedPairs()

	if len(cached) != 3 {
		t.Errorf("Expected 3 cached pairs, got %d", len(cached))
	}
}

func TestClearCache(t *testing.T) {
	svc := NewService(DefaultServiceConfig())

	svc.cache.set("BTCUSDT", Digest{Pair: "BTCUSDT", Timestamp: time.Now().UTC()})

	cached := svc.GetCachedPairs()
	if len(cached) != 1 {
		t.Fatal("Expected 1 cached pair")
	}

	svc.ClearCache()

	cached = svc.GetCachedPairs()
	if len(cached) != 0 {
		t.Errorf("Expected 0 cached pairs after clear, got %d", len(cached))
	}
}
