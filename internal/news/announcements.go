package news

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

const (
	binanceOrigin     = "https://www.binance.com"
	announcementLimit = 30
)

var (
	nextDataRe = regexp.MustCompile(`(?is)<script\s+id="__NEXT_DATA__"\s+type="application/json"\s*>(.*?)</script>`)
	anchorRe   = regexp.MustCompile(`(?is)<a\s+[^>]*href=["']([^"']*/support/announcement/[^"']*)["'][^>]*>(.*?)</a>`)
	tagRe      = regexp.MustCompile(`<[^>]+>`)
)

// fetchAnnouncements scrapes the Binance announcements page: first the
// embedded __NEXT_DATA__ JSON, then a plain anchor scan as fallback.
func (a *Aggregator) fetchAnnouncements(ctx context.Context, sourceID, sourceName, url string) []Item {
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

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil
	}
	html := string(body)

	if items := parseNextData(html, sourceID, sourceName); len(items) > 0 {
		return items
	}
	return parseAnchors(html, sourceID, sourceName)
}

// parseNextData extracts the __NEXT_DATA__ JSON blob and walks it for the
// first array that looks like an announcements list.
func parseNextData(html, sourceID, sourceName string) []Item {
	m := nextDataRe.FindStringSubmatch(html)
	if m == nil {
		return nil
	}

	var data any
	if err := json.Unmarshal([]byte(m[1]), &data); err != nil {
		return nil
	}

	list := findAnnouncements(data)
	if len(list) > announcementLimit {
		list = list[:announcementLimit]
	}

	items := make([]Item, 0, len(list))
	for _, a := range list {
		item := Item{
			SourceID:   sourceID,
			SourceName: sourceName,
			Title:      a.title,
			URL:        a.url,
			Kind:       KindAnnouncements,
		}
		if t := parseAnnouncementDate(a.date); t != nil {
			item.PublishedAt = t
		}
		items = append(items, item)
	}
	return items
}

type announcement struct {
	title string
	date  any // number (ms or s) or string
	url   string
}

// findAnnouncements recursively looks for arrays of objects carrying a
// title, a release date and either a URL or an announcement code.
func findAnnouncements(node any) []announcement {
	switch n := node.(type) {
	case []any:
		var out []announcement
		for _, el := range n {
			obj, ok := el.(map[string]any)
			if !ok {
				continue
			}
			title := firstString(obj, "title", "name")
			date := firstValue(obj, "releaseDate", "publishDate", "date")
			if title == "" || date == nil {
				continue
			}

			url, _ := obj["url"].(string)
			if !strings.HasPrefix(url, "http") {
				code := firstString(obj, "code", "id", "slug")
				if code == "" {
					continue
				}
				url = binanceOrigin + "/en/support/announcement/" + code
			}
			out = append(out, announcement{title: strings.TrimSpace(title), date: date, url: url})
		}
		if len(out) > 0 {
			return out
		}
	case map[string]any:
		for _, v := range n {
			if found := findAnnouncements(v); found != nil {
				return found
			}
		}
	}
	return nil
}

func parseAnnouncementDate(v any) *time.Time {
	switch d := v.(type) {
	case float64:
		var t time.Time
		if d < 1e12 { // seconds
			t = time.Unix(int64(d), 0).UTC()
		} else { // milliseconds
			t = time.UnixMilli(int64(d)).UTC()
		}
		return &t
	case string:
		if t, err := time.Parse(time.RFC3339, d); err == nil {
			u := t.UTC()
			return &u
		}
	}
	return nil
}

// parseAnchors is the fallback: collect announcement links directly from
// the page markup.
func parseAnchors(html, sourceID, sourceName string) []Item {
	seen := make(map[string]bool)
	var items []Item

	for _, m := range anchorRe.FindAllStringSubmatch(html, -1) {
		if len(items) >= announcementLimit {
			break
		}
		href := strings.TrimSpace(m[1])
		text := strings.TrimSpace(tagRe.ReplaceAllString(m[2], ""))
		if text == "" {
			continue
		}
		url := href
		if !strings.HasPrefix(url, "http") {
			if !strings.HasPrefix(url, "/") {
				url = "/" + url
			}
			url = binanceOrigin + url
		}
		if seen[url] {
			continue
		}
		seen[url] = true
		items = append(items, Item{
			SourceID:   sourceID,
			SourceName: sourceName,
			Title:      text,
			URL:        url,
			Kind:       KindAnnouncements,
		})
	}
	return items
}

func firstString(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := obj[k].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

func firstValue(obj map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := obj[k]; ok && v != nil {
			return v
		}
	}
	return nil
}
