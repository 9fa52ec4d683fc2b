package news

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"
)

// Keyword vocabularies for headline scoring. Matching is presence-based:
// a term counts once per article no matter how often it repeats.
var (
	positiveKeywords = []string{
		"bull", "bullish", "rise", "surge", "rally", "moon", "pump",
		"adoption", "institutional", "etf", "approval", "breakthrough",
		"innovation", "partnership", "investment", "hodl", "buy",
	}
	negativeKeywords = []string{
		"crash", "dump", "fall", "decline", "bear", "bearish", "sell",
		"panic", "fear", "uncertainty", "risk", "volatile", "bubble",
		"regulation", "ban", "restrict", "hack", "scam", "fraud",
	}
	assetKeywords  = []string{"bitcoin", "btc", "crypto", "cryptocurrency"}
	marketKeywords = []string{"market", "trading", "price", "analysis", "forecast"}
)

// indicatorAdjustments shifts the base score for themes whose price
// impact outweighs their raw keyword count. Ordered slice keeps the
// float accumulation deterministic.
var indicatorAdjustments = []struct {
	term   string
	weight float64
}{
	{"institutional", 0.2},
	{"adoption", 0.15},
	{"etf", 0.1},
	{"regulation", -0.1},
	{"hack", -0.2},
	{"scam", -0.3},
	{"partnership", 0.1},
	{"investment", 0.05},
}

var priceRe = regexp.MustCompile(`\$\d{1,3}(?:,\d{3})*(?:\.\d{2})?`)

// Analyzer scores scraped articles by keyword sentiment and relevance
// and aggregates them into a per-pair digest.
type Analyzer struct {
	minRelevance float64
}

// NewAnalyzer creates an analyzer that drops articles at or below the
// given relevance threshold during aggregation.
func NewAnalyzer(minRelevance float64) *Analyzer {
	return &Analyzer{minRelevance: minRelevance}
}

// Score fills in the sentiment and relevance fields of an article.
func (a *Analyzer) Score(article *Article) {
	text := strings.ToLower(article.Title + " " + article.Content)
	article.Sentiment = sentimentScore(text)
	article.Relevance = relevanceScore(text)
}

// sentimentScore maps keyword counts to [0,1] with 0.5 neutral. The
// base is the positive/negative ratio; theme adjustments shift it.
func sentimentScore(text string) float64 {
	pos := countPresent(text, positiveKeywords)
	neg := countPresent(text, negativeKeywords)

	total := pos + neg
	if total < 1 {
		total = 1
	}
	ratio := float64(pos-neg) / float64(total)
	score := 0.5 + ratio*0.5

	for _, adj := range indicatorAdjustments {
		if strings.Contains(text, adj.term) {
			score += adj.weight
		}
	}

	return clamp01(score)
}

// relevanceScore measures how on-topic an article is: asset mentions
// dominate, concrete prices and market vocabulary add the rest.
func relevanceScore(text string) float64 {
	asset := float64(countPresent(text, assetKeywords))
	prices := float64(len(priceRe.FindAllString(text, -1)))
	market := float64(countPresent(text, marketKeywords))

	score := math.Min(asset*0.3, 0.6) +
		math.Min(prices*0.1, 0.2) +
		math.Min(market*0.05, 0.2)

	return clamp01(score)
}

func countPresent(text string, words []string) int {
	n := 0
	for _, w := range words {
		if strings.Contains(text, w) {
			n++
		}
	}
	return n
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Digest is the aggregated read of recent coverage for one pair.
type Digest struct {
	Pair      string
	Score     float64 // relevance-weighted average sentiment, 0.5 = neutral
	Articles  []Article
	Positive  int
	Negative  int
	Neutral   int
	Summary   string
	Timestamp time.Time
}

// Aggregate filters articles by relevance, orders them most relevant
// first, and folds their sentiments into a single digest. No relevant
// coverage yields a neutral digest rather than an error.
func (a *Analyzer) Aggregate(pair string, articles []Article) Digest {
	relevant := make([]Article, 0, len(articles))
	for _, art := range articles {
		if art.Relevance > a.minRelevance {
			relevant = append(relevant, art)
		}
	}
	sort.SliceStable(relevant, func(i, j int) bool {
		return relevant[i].Relevance > relevant[j].Relevance
	})

	d := Digest{
		Pair:      pair,
		Score:     0.5,
		Articles:  relevant,
		Timestamp: time.Now().UTC(),
	}
	if len(relevant) == 0 {
		d.Summary = "No relevant coverage"
		return d
	}

	var weighted, total float64
	for _, art := range relevant {
		weighted += art.Sentiment * art.Relevance
		total += art.Relevance

		switch {
		case art.Sentiment > 0.6:
			d.Positive++
		case art.Sentiment < 0.4:
			d.Negative++
		default:
			d.Neutral++
		}
	}
	if total > 0 {
		d.Score = weighted / total
	}
	d.Summary = summarize(d)

	return d
}

// summarize renders the sentiment breakdown in one line.
func summarize(d Digest) string {
	switch {
	case d.Positive > d.Negative:
		return fmt.Sprintf("Positive sentiment (%d positive, %d negative news)", d.Positive, d.Negative)
	case d.Negative > d.Positive:
		return fmt.Sprintf("Negative sentiment (%d negative, %d positive news)", d.Negative, d.Positive)
	default:
		return fmt.Sprintf("Mixed sentiment (%d positive, %d negative, %d neutral news)", d.Positive, d.Negative, d.Neutral)
	}
}

// Headlines returns up to n article titles, most relevant first.
func (d Digest) Headlines(n int) []string {
	out := make([]string, 0, n)
	for _, a := range d.Articles {
		if len(out) == n {
			break
		}
		out = append(out, a.Title)
	}
	return out
}

// Confidence reflects how much coverage backs the score and how
// consistently the articles agree.
func (d Digest) Confidence() float64 {
	n := len(d.Articles)

	var base float64
	switch {
	case n >= 10:
		base = 0.9
	case n >= 5:
		base = 0.7
	case n >= 3:
		base = 0.5
	case n >= 1:
		base = 0.3
	default:
		return 0
	}

	// Scale by agreement: unanimous coverage keeps the base, an even
	// split halves it.
	top := d.Positive
	if d.Negative > top {
		top = d.Negative
	}
	if d.Neutral > top {
		top = d.Neutral
	}
	return base * float64(top) / float64(n)
}
