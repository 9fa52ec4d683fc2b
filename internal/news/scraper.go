package news

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/temaptz/trade-agent/internal/api"
	"github.com/temaptz/trade-agent/internal/logger"
)

// Article is a scraped news item with its computed scores.
type Article struct {
	Title     string
	URL       string
	Source    string
	Content   string
	Sentiment float64 // 0..1 where 0.5 is neutral
	Relevance float64 // 0..1
	ScrapedAt time.Time
}

// Scraper handles scraping news from multiple sources
type Scraper struct {
	sources []Source
	timeout time.Duration
	fetcher *api.Client
}

// Source defines a news source configuration
type Source struct {
	Name      string
	BaseURL   string
	Path      string // listing page, e.g. "/tag/bitcoin/"
	Selectors ArticleSelectors
	RateLimit time.Duration
}

// ArticleSelectors defines CSS selectors for extracting article data
type ArticleSelectors struct {
	ArticleContainer string
	Title            string
	URL              string
	Content          string
}

// NewScraper creates a scraper for the configured source URLs. URLs with
// a known builtin profile get site-specific selectors; anything else
// falls back to generic article markup.
func NewScraper(timeout time.Duration, sourceURLs []string) *Scraper {
	sources := make([]Source, 0, len(sourceURLs))
	for _, u := range sourceURLs {
		sources = append(sources, sourceFor(u))
	}

	return &Scraper{
		sources: sources,
		timeout: timeout,
		fetcher: api.NewClient(
			api.WithTimeout(timeout),
			// Article body fetches share one bucket so a burst of
			// enrichment never hammers a single site.
			api.WithRateLimit(api.NewRateLimiter(2, 1*time.Second)),
		),
	}
}

// builtinSources maps hostnames to scraping profiles for the crypto
// outlets the bot follows by default.
func builtinSources() map[string]Source {
	return map[string]Source{
		"www.coindesk.com": {
			Name:    "CoinDesk",
			BaseURL: "https://www.coindesk.com",
			Path:    "/tag/bitcoin/",
			Selectors: ArticleSelectors{
				ArticleContainer: "article",
				Title:            "h2 a, h3 a",
				URL:              "h2 a, h3 a",
				Content:          "p",
			},
			RateLimit: 2 * time.Second,
		},
		"cointelegraph.com": {
			Name:    "Cointelegraph",
			BaseURL: "https://cointelegraph.com",
			Path:    "/tags/bitcoin",
			Selectors: ArticleSelectors{
				ArticleContainer: "article.post-card-inline",
				Title:            "span.post-card-inline__title",
				URL:              "a.post-card-inline__title-link",
				Content:          "p.post-card-inline__text",
			},
			RateLimit: 2 * time.Second,
		},
		"decrypt.co": {
			Name:    "Decrypt",
			BaseURL: "https://decrypt.co",
			Path:    "/news/bitcoin",
			Selectors: ArticleSelectors{
				ArticleContainer: "article",
				Title:            "h3 a, h4 a",
				URL:              "h3 a, h4 a",
				Content:          "p",
			},
			RateLimit: 2 * time.Second,
		},
	}
}

// sourceFor resolves a configured URL to its scraping profile.
func sourceFor(rawURL string) Source {
	host := getDomain(rawURL)
	if s, ok := builtinSources()[host]; ok {
		return s
	}
	return Source{
		Name:    host,
		BaseURL: strings.TrimRight(rawURL, "/"),
		Path:    "/",
		Selectors: ArticleSelectors{
			ArticleContainer: "article",
			Title:            "h1 a, h2 a, h3 a",
			URL:              "a",
			Content:          "p",
		},
		RateLimit: 2 * time.Second,
	}
}

// Scrape fetches recent articles from all configured sources.
func (s *Scraper) Scrape(ctx context.Context, maxArticles int) ([]Article, error) {
	logger.Info(ctx, "Starting news scraping", "sources", len(s.sources))

	if len(s.sources) == 0 {
		return nil, nil
	}

	allArticles := []Article{}
	articlesPerSource := maxArticles / len(s.sources)
	if articlesPerSource < 1 {
		articlesPerSource = 1
	}

	for _, source := range s.sources {
		articles, err := s.scrapeSource(ctx, source, articlesPerSource)
		if err != nil {
			logger.ErrorWithErr(ctx, "Failed to scrape source", err, "source", source.Name)
			continue
		}
		allArticles = append(allArticles, articles...)

		// Rate limiting between sources
		time.Sleep(source.RateLimit)
	}

	logger.Info(ctx, "News scraping completed", "articles", len(allArticles))
	return allArticles, nil
}

// scrapeSource scrapes articles from a single news source
func (s *Scraper) scrapeSource(ctx context.Context, source Source, maxArticles int) ([]Article, error) {
	articles := []Article{}

	c := colly.NewCollector(
		colly.AllowedDomains(getDomain(source.BaseURL)),
		colly.MaxDepth(1),
		colly.Async(false),
	)

	c.SetRequestTimeout(s.timeout)

	// Set user agent to avoid being blocked
	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	})

	c.OnHTML(source.Selectors.ArticleContainer, func(e *colly.HTMLElement) {
		if len(articles) >= maxArticles {
			return
		}

		title := strings.TrimSpace(e.ChildText(source.Selectors.Title))
		if title == "" {
			return
		}

		articleURL := e.ChildAttr(source.Selectors.URL, "href")
		if articleURL == "" {
			return
		}
		if !strings.HasPrefix(articleURL, "http") {
			articleURL = source.BaseURL + articleURL
		}

		articles = append(articles, Article{
			Title:     title,
			URL:       articleURL,
			Source:    source.Name,
			Content:   strings.TrimSpace(e.ChildText(source.Selectors.Content)),
			ScrapedAt: time.Now().UTC(),
		})
	})

	c.OnError(func(r *colly.Response, err error) {
		logger.ErrorWithErr(ctx, "Scraping error", err, "source", source.Name, "url", r.Request.URL.String())
	})

	listingURL := source.BaseURL + source.Path
	if err := c.Visit(listingURL); err != nil {
		return nil, fmt.Errorf("failed to visit %s: %w", listingURL, err)
	}
	c.Wait()

	return s.enrichArticles(ctx, articles), nil
}

// enrichArticles fetches full bodies for articles whose listing snippet
// was too short to score meaningfully.
func (s *Scraper) enrichArticles(ctx context.Context, articles []Article) []Article {
	enriched := make([]Article, len(articles))
	copy(enriched, articles)

	for i := range enriched {
		if len(enriched[i].Content) >= 100 {
			continue
		}
		if body := s.fetchArticleBody(ctx, enriched[i].URL); body != "" {
			enriched[i].Content = body
		}
	}

	return enriched
}

// fetchArticleBody downloads an article page and extracts its paragraph
// text. Paragraphs under 20 characters are navigation crumbs, not copy.
func (s *Scraper) fetchArticleBody(ctx context.Context, articleURL string) string {
	resp, err := s.fetcher.GET(ctx, articleURL, api.NewsHeaders())
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to fetch article content", err, "url", articleURL)
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to parse article HTML", err, "url", articleURL)
		return ""
	}

	paragraphs := []string{}
	doc.Find("article p, div.article-body p, div.content-body p, div.post-content p").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if len(text) > 20 {
			paragraphs = append(paragraphs, text)
		}
	})
	if len(paragraphs) == 0 {
		doc.Find("p").Each(func(_ int, sel *goquery.Selection) {
			text := strings.TrimSpace(sel.Text())
			if len(text) > 20 {
				paragraphs = append(paragraphs, text)
			}
		})
	}

	body := strings.Join(paragraphs, "\n\n")
	if len(body) > 2000 {
		body = body[:2000]
	}
	return body
}

// getDomain extracts domain from URL
func getDomain(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// ScrapeGoogleNews searches Google News for crypto coverage (fallback
// when the primary sources come back empty).
func (s *Scraper) ScrapeGoogleNews(ctx context.Context, query string, maxArticles int) ([]Article, error) {
	articles := []Article{}

	c := colly.NewCollector(
		colly.AllowedDomains("news.google.com", "www.google.com"),
	)

	c.SetRequestTimeout(s.timeout)

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	})

	c.OnHTML("article", func(e *colly.HTMLElement) {
		if len(articles) >= maxArticles {
			return
		}

		title := e.ChildText("h3, h4")
		link := e.ChildAttr("a", "href")

		if title != "" && link != "" {
			// Clean up Google News redirect URL
			if strings.HasPrefix(link, "./articles/") {
				link = "https://news.google.com" + link[1:]
			}

			articles = append(articles, Article{
				Title:     title,
				URL:       link,
				Source:    "GoogleNews",
				ScrapedAt: time.Now().UTC(),
			})
		}
	})

	searchURL := fmt.Sprintf("https://news.google.com/search?q=%s&hl=en-US&gl=US&ceid=US:en", url.QueryEscape(query))
	if err := c.Visit(searchURL); err != nil {
		return nil, fmt.Errorf("failed to scrape Google News: %w", err)
	}
	c.Wait()

	logger.Info(ctx, "Google News scraping completed", "query", query, "articles", len(articles))
	return articles, nil
}
