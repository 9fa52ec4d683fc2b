package news

import (
	"context"
	"sync"
	"time"

	"github.com/temaptz/trade-agent/internal/logger"
	"github.com/temaptz/trade-agent/internal/store"
)

// Service provides news coverage digests with caching
type Service struct {
	scraper  *Scraper
	analyzer *Analyzer
	cache    *digestCache
	cfg      *ServiceConfig
}

// ServiceConfig configures the news service
type ServiceConfig struct {
	MaxArticles    int           // Maximum articles to scrape per refresh
	CacheTTL       time.Duration // How long a digest stays fresh
	MinRelevance   float64       // Relevance cutoff for aggregation
	ScraperTimeout time.Duration // Timeout for scraping operations
	Sources        []string      // Source URLs to scrape
	Enabled        bool          // Whether news analysis is enabled
}

// DefaultServiceConfig returns default configuration
func DefaultServiceConfig() *ServiceConfig {
	return &ServiceConfig{
		MaxArticles:    10,
		CacheTTL:       5 * time.Minute,
		MinRelevance:   0.3,
		ScraperTimeout: 30 * time.Second,
		Enabled:        true,
	}
}

// FromConfig lifts the news block out of the bot config. Callers decide
// Enabled; the news block itself has no kill switch.
func FromConfig(cfg *store.Config) *ServiceConfig {
	sc := DefaultServiceConfig()
	sc.MaxArticles = cfg.News.MaxArticles
	sc.CacheTTL = time.Duration(cfg.News.UpdateIntervalSeconds) * time.Second
	sc.MinRelevance = cfg.News.MinRelevance
	sc.Sources = cfg.News.Sources
	return sc
}

// digestCache stores digests temporarily
type digestCache struct {
	mu   sync.RWMutex
	data map[string]*cacheEntry
	ttl  time.Duration
}

type cacheEntry struct {
	digest    Digest
	timestamp time.Time
}

// newDigestCache creates a new cache
func newDigestCache(ttl time.Duration) *digestCache {
	cache := &digestCache{
		data: make(map[string]*cacheEntry),
		ttl:  ttl,
	}

	// Start cleanup goroutine
	go cache.cleanupLoop()

	return cache
}

// get retrieves a cached digest if still fresh
func (c *digestCache) get(pair string) (Digest, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.data[pair]
	if !exists {
		return Digest{}, false
	}

	if time.Since(entry.timestamp) > c.ttl {
		return Digest{}, false
	}

	return entry.digest, true
}

// set stores a digest in the cache
func (c *digestCache) set(pair string, d Digest) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[pair] = &cacheEntry{
		digest:    d,
		timestamp: time.Now(),
	}
}

// cleanupLoop periodically removes expired entries
func (c *digestCache) cleanupLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		c.cleanup()
	}
}

// cleanup removes expired entries
func (c *digestCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for pair, entry := range c.data {
		if now.Sub(entry.timestamp) > c.ttl {
			delete(c.data, pair)
		}
	}
}

// NewService creates a new news service
func NewService(cfg *ServiceConfig) *Service {
	if cfg == nil {
		cfg = DefaultServiceConfig()
	}

	return &Service{
		scraper:  NewScraper(cfg.ScraperTimeout, cfg.Sources),
		analyzer: NewAnalyzer(cfg.MinRelevance),
		cache:    newDigestCache(cfg.CacheTTL),
		cfg:      cfg,
	}
}

// GetDigest returns the coverage digest for a pair (cached or fresh)
func (s *Service) GetDigest(ctx context.Context, pair string) (Digest, error) {
	if !s.cfg.Enabled {
		return Digest{
			Pair:      pair,
			Score:     0.5,
			Summary:   "News analysis disabled",
			Timestamp: time.Now().UTC(),
		}, nil
	}

	if cached, ok := s.cache.get(pair); ok {
		logger.Info(ctx, "Using cached news digest", "pair", pair,
			"age_minutes", time.Since(cached.Timestamp).Minutes())
		return cached, nil
	}

	logger.Info(ctx, "Fetching fresh news digest", "pair", pair)
	digest, err := s.fetchFreshDigest(ctx, pair)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to fetch news digest", err, "pair", pair)
		// Degrade to neutral rather than failing the cycle
		return Digest{
			Pair:      pair,
			Score:     0.5,
			Summary:   "Failed to fetch news: " + err.Error(),
			Timestamp: time.Now().UTC(),
		}, nil
	}

	s.cache.set(pair, digest)

	return digest, nil
}

// GetHeadlines returns up to n recent headline titles for a pair.
func (s *Service) GetHeadlines(ctx context.Context, pair string, n int) []string {
	d, err := s.GetDigest(ctx, pair)
	if err != nil {
		return nil
	}
	return d.Headlines(n)
}

// fetchFreshDigest scrapes and scores news for a pair
func (s *Service) fetchFreshDigest(ctx context.Context, pair string) (Digest, error) {
	articles, err := s.scraper.Scrape(ctx, s.cfg.MaxArticles)
	if err != nil {
		return Digest{}, err
	}

	// If the primary sources came back empty, try Google News
	if len(articles) == 0 {
		logger.Info(ctx, "No articles from primary sources, trying Google News", "pair", pair)
		articles, err = s.scraper.ScrapeGoogleNews(ctx, "bitcoin price news", s.cfg.MaxArticles)
		if err != nil {
			logger.ErrorWithErr(ctx, "Google News fallback failed", err, "pair", pair)
		}
	}

	for i := range articles {
		s.analyzer.Score(&articles[i])
	}

	return s.analyzer.Aggregate(pair, articles), nil
}

// RefreshDigest forces a refresh (bypasses cache)
func (s *Service) RefreshDigest(ctx context.Context, pair string) (Digest, error) {
	digest, err := s.fetchFreshDigest(ctx, pair)
	if err != nil {
		return Digest{}, err
	}

	s.cache.set(pair, digest)
	return digest, nil
}

// ClearCache removes all cached digests
func (s *Service) ClearCache() {
	s.cache.mu.Lock()
	defer s.cache.mu.Unlock()
	s.cache.data = make(map[string]*cacheEntry)
}

// GetCachedPairs returns pairs with a cached digest
func (s *Service) GetCachedPairs() []string {
	s.cache.mu.RLock()
	defer s.cache.mu.RUnlock()

	pairs := make([]string, 0, len(s.cache.data))
	for pair := range s.cache.data {
		pairs = append(pairs, pair)
	}
	return pairs
}
