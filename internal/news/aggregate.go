package news

import (
	"context"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"sync"

	"marketdesk/config"
)

// Aggregator fans out to all enabled sources, merges their items, dedupes
// by URL and applies keyword filtering.
type Aggregator struct {
	sources    []config.NewsSource
	httpClient *http.Client
}

func NewAggregator(cfg config.NewsConfig) *Aggregator {
	return &Aggregator{
		sources:    cfg.Sources,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Query selects and bounds an aggregation run.
type Query struct {
	Keywords []string
	Limit    int
	SourceID string // restrict to one source when set
}

// Fetch runs all enabled sources concurrently; per-source failures
// degrade to no items from that source.
func (a *Aggregator) Fetch(ctx context.Context, q Query) []Item {
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []Item
	)

	for _, src := range a.sources {
		if !src.Enabled || (q.SourceID != "" && src.ID != q.SourceID) {
			continue
		}
		src := src
		wg.Add(1)
		go func() {
			defer wg.Done()
			var items []Item
			switch src.Kind {
			case KindAnnouncements:
				items = a.fetchAnnouncements(ctx, src.ID, src.Name, src.URL)
			default:
				items = a.fetchRSS(ctx, src.ID, src.Name, src.URL)
			}
			mu.Lock()
			results = append(results, items...)
			mu.Unlock()
		}()
	}
	wg.Wait()

	return finalize(results, q)
}

func finalize(all []Item, q Query) []Item {
	seen := make(map[string]bool)
	var out []Item
	for _, item := range all {
		key := strings.ToLower(item.URL)
		if seen[key] {
			continue
		}
		seen[key] = true
		if !matchesKeywords(item, q.Keywords) {
			continue
		}
		out = append(out, item)
	}

	sort.Slice(out, func(i, j int) bool {
		return pubTime(out[i]) > pubTime(out[j])
	})

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

func pubTime(i Item) int64 {
	if i.PublishedAt == nil {
		return 0
	}
	return i.PublishedAt.UnixMilli()
}

var alnumRe = regexp.MustCompile(`^[a-z0-9]+$`)

// matchesKeywords checks title+summary against the keyword list. Short
// symbol-like keywords (e.g. "BTC") match on word boundaries so "BTC"
// does not match "BTCUSD-adjacent" prose accidentally; longer phrases use
// plain substring matching.
func matchesKeywords(item Item, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	text := strings.ToLower(item.Title + " " + item.Summary)
	for _, kw := range keywords {
		lower := strings.ToLower(strings.TrimSpace(kw))
		if lower == "" {
			continue
		}
		if len(lower) <= 6 && alnumRe.MatchString(lower) {
			re, err := regexp.Compile(`\b` + regexp.QuoteMeta(lower) + `\b`)
			if err == nil && re.MatchString(text) {
				return true
			}
		} else if strings.Contains(text, lower) {
			return true
		}
	}
	return false
}
