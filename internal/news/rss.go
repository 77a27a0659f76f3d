package news

import (
	"context"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/mmcdole/gofeed"
)

const (
	summaryMaxLen = 240
	userAgent     = "Mozilla/5.0 (compatible; marketdesk/1.0)"
)

// fetchRSS downloads and parses one RSS/Atom feed. Any failure returns an
// empty slice; a broken feed never breaks the aggregate.
func (a *Aggregator) fetchRSS(ctx context.Context, sourceID, sourceName, url string) []Item {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil
	}

	feed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return nil
	}

	var items []Item
	for _, entry := range feed.Items {
		title := strings.TrimSpace(entry.Title)
		link := strings.TrimSpace(entry.Link)
		if title == "" || link == "" {
			continue
		}

		item := Item{
			SourceID:   sourceID,
			SourceName: sourceName,
			Title:      title,
			URL:        link,
			Summary:    trimSummary(entry.Description),
			Kind:       KindRSS,
		}
		if entry.PublishedParsed != nil {
			t := entry.PublishedParsed.UTC()
			item.PublishedAt = &t
		} else if entry.UpdatedParsed != nil {
			t := entry.UpdatedParsed.UTC()
			item.PublishedAt = &t
		}
		for _, c := range entry.Categories {
			if c = strings.TrimSpace(c); c != "" {
				item.Tags = append(item.Tags, c)
			}
		}
		items = append(items, item)
	}
	return items
}

func trimSummary(text string) string {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) <= summaryMaxLen {
		return trimmed
	}
	// Back off to a rune boundary so the cut never splits a multibyte
	// character.
	cut := summaryMaxLen
	for cut > 0 && !utf8.RuneStart(trimmed[cut]) {
		cut--
	}
	return strings.TrimSpace(trimmed[:cut]) + "…"
}
