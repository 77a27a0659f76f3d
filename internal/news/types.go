// Package news aggregates crypto headlines from RSS feeds and the Binance
// announcements page into a uniform item shape.
package news

import "time"

// Kind discriminates how a source is scraped.
const (
	KindRSS           = "rss"
	KindAnnouncements = "binance_announcements"
)

// Item is one normalized news entry.
type Item struct {
	SourceID    string     `json:"sourceId"`
	SourceName  string     `json:"sourceName"`
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	PublishedAt *time.Time `json:"publishedAt"`
	Summary     string     `json:"summary,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	Kind        string     `json:"kind"`
}
