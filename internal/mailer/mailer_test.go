package mailer

import (
	"testing"
	"time"

	"marketdesk/config"
	"marketdesk/internal/losers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderDigest(t *testing.T) {
	rows := []losers.Loser{
		{Symbol: "AAAUSDT", LastPrice: 1.23, ChangePct24h: -12.5, QuoteVolume24h: 4_500_000},
		{Symbol: "BBBUSDT", LastPrice: 0.00042, ChangePct24h: -8.31, QuoteVolume24h: 2_100_000_000},
	}
	at := time.Date(2025, 9, 1, 14, 30, 0, 0, time.UTC)

	body, err := RenderDigest(rows, at)
	require.NoError(t, err)

	assert.Contains(t, body, "2025-09-01 14:30 UTC")
	assert.Contains(t, body, "2 pairs")
	assert.Contains(t, body, "AAAUSDT")
	assert.Contains(t, body, "1.23")
	assert.Contains(t, body, "-12.50%")
	assert.Contains(t, body, "4.50M")
	assert.Contains(t, body, "2.10B")
	assert.Contains(t, body, "0.00042")
}

func TestRenderDigestEmpty(t *testing.T) {
	body, err := RenderDigest(nil, time.Now())
	require.NoError(t, err)
	assert.Contains(t, body, "0 pairs")
}

func TestMailerDisabledWithoutHost(t *testing.T) {
	m := New(config.SMTPConfig{})
	assert.False(t, m.Enabled())

	err := m.SendDigest("user@example.com", nil)
	require.Error(t, err)
}

func TestMailerEnabled(t *testing.T) {
	m := New(config.SMTPConfig{Host: "smtp.example.com", Port: 587, From: "desk@example.com"})
	assert.True(t, m.Enabled())
}
