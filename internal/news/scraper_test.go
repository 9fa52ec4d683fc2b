package news

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestScrapeSourceParsesListing(t *testing.T) {
	body := strings.Repeat("Institutional adoption keeps climbing across the market. ", 4)
	html := `<html><body>
		<article><h2><a href="/story/one">Bitcoin rallies past $65,000</a></h2><p>` + body + `</p></article>
		<article><h2><a href="https://example.com/story/two">Exchange hack sparks fear</a></h2><p>` + body + `</p></article>
	</body></html>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(html))
	}))
	defer srv.Close()

	s := NewScraper(5*time.Second, nil)
	src := Source{
		Name:    "test",
		BaseURL: srv.URL,
		Path:    "/",
		Selectors: ArticleSelectors{
			ArticleContainer: "article",
			Title:            "h2 a",
			URL:              "h2 a",
			Content:          "p",
		},
	}

	articles, err := s.scrapeSource(context.Background(), src, 10)
	if err != nil {
		t.Fatalf("scrapeSource failed: %v", err)
	}

	if len(articles) != 2 {
		t.Fatalf("Expected 2 articles, got %d", len(articles))
	}
	if articles[0].Title != "Bitcoin rallies past $65,000" {
		t.Errorf("Unexpected title: %s", articles[0].Title)
	}
	if articles[0].URL != srv.URL+"/story/one" {
		t.Errorf("Expected relative URL made absolute, got %s", articles[0].URL)
	}
	if articles[1].URL != "https://example.com/story/two" {
		t.Errorf("Expected absolute URL kept, got %s", articles[1].URL)
	}
	if articles[0].Source != "test" {
		t.Errorf("Unexpected source: %s", articles[0].Source)
	}
}

func TestScrapeSourceRespectsLimit(t *testing.T) {
	body := strings.Repeat("Plenty of trading detail in this paragraph for scoring. ", 4)
	html := `<html><body>
		<article><h2><a href="/a">First</a></h2><p>` + body + `</p></article>
		<article><h2><a href="/b">Second</a></h2><p>` + body + `</p></article>
		<article><h2><a href="/c">Third</a></h2><p>` + body + `</p></article>
	</body></html>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(html))
	}))
	defer srv.Close()

	s := NewScraper(5*time.Second, nil)
	src := Source{
		Name:    "test",
		BaseURL: srv.URL,
		Path:    "/",
		Selectors: ArticleSelectors{
			ArticleContainer: "article",
			Title:            "h2 a",
			URL:              "h2 a",
			Content:          "p",
		},
	}

	articles, err := s.scrapeSource(context.Background(), src, 1)
	if err != nil {
		t.Fatalf("scrapeSource failed: %v", err)
	}
	if len(articles) != 1 {
		t.Errorf("Expected article limit of 1, got %d", len(articles))
	}
}

func TestSourceForBuiltin(t *testing.T) {
	src := sourceFor("https://cointelegraph.com")

	if src.Name != "Cointelegraph" {
		t.Errorf("Expected builtin profile, got %s", src.Name)
	}
	if src.Selectors.ArticleContainer != "article.post-card-inline" {
		t.Errorf("Expected site-specific selectors, got %s", src.Selectors.ArticleContainer)
	}
}

func TestSourceForUnknown(t *testing.T) {
	src := sourceFor("https://example.org/feed/")

	if src.Name != "example.org" {
		t.Errorf("Expected hostname as name, got %s", src.Name)
	}
	if src.Selectors.ArticleContainer != "article" {
		t.Errorf("Expected generic selectors, got %s", src.Selectors.ArticleContainer)
	}
	if src.BaseURL != "https://example.org/feed" {
		t.Errorf("Expected trailing slash trimmed, got %s", src.BaseURL)
	}
}

func TestGetDomain(t *testing.T) {
	if d := getDomain("https://www.coindesk.com/tag/bitcoin/"); d != "www.coindesk.com" {
		t.Errorf("Unexpected domain: %s", d)
	}
}
