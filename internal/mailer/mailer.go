// Package mailer renders and sends the losers digest email.
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"strconv"
	"time"

	"marketdesk/config"
	"marketdesk/internal/losers"
)

var digestTmpl = template.Must(template.New("digest").Funcs(template.FuncMap{
	"price": func(v float64) string {
		if v >= 1 {
			return strconv.FormatFloat(v, 'f', 2, 64)
		}
		return strconv.FormatFloat(v, 'g', 5, 64)
	},
	"pct": func(v float64) string {
		return strconv.FormatFloat(v, 'f', 2, 64) + "%"
	},
	"compact": func(v float64) string {
		switch {
		case v >= 1e9:
			return strconv.FormatFloat(v/1e9, 'f', 2, 64) + "B"
		case v >= 1e6:
			return strconv.FormatFloat(v/1e6, 'f', 2, 64) + "M"
		case v >= 1e3:
			return strconv.FormatFloat(v/1e3, 'f', 2, 64) + "K"
		}
		return strconv.FormatFloat(v, 'f', 2, 64)
	},
}).Parse(`<!DOCTYPE html>
<html>
<body style="font-family:monospace;background:#fafafa;padding:16px">
  <h2 style="margin:0 0 4px">Top 24h Losers</h2>
  <p style="color:#666;margin:0 0 12px">{{.Date}} &middot; {{len .Losers}} pairs</p>
  <table cellpadding="6" cellspacing="0" style="border-collapse:collapse;background:#fff;border:1px solid #ddd">
    <tr style="background:#111;color:#fff;text-align:left">
      <th>Symbol</th><th>Last</th><th>24h %</th><th>24h Vol</th>
    </tr>
    {{range .Losers}}
    <tr style="border-top:1px solid #eee">
      <td><strong>{{.Symbol}}</strong></td>
      <td>{{price .LastPrice}}</td>
      <td style="color:#c0392b">{{pct .ChangePct24h}}</td>
      <td>{{compact .QuoteVolume24h}}</td>
    </tr>
    {{end}}
  </table>
</body>
</html>`))

type digestData struct {
	Date   string
	Losers []losers.Loser
}

// RenderDigest produces the HTML body for a losers digest.
func RenderDigest(rows []losers.Loser, at time.Time) (string, error) {
	var buf bytes.Buffer
	err := digestTmpl.Execute(&buf, digestData{
		Date:   at.UTC().Format("2006-01-02 15:04 UTC"),
		Losers: rows,
	})
	if err != nil {
		return "", fmt.Errorf("render digest: %w", err)
	}
	return buf.String(), nil
}

// Mailer sends digests over SMTP.
type Mailer struct {
	cfg config.SMTPConfig
}

func New(cfg config.SMTPConfig) *Mailer {
	return &Mailer{cfg: cfg}
}

// Enabled reports whether an SMTP host is configured.
func (m *Mailer) Enabled() bool {
	return m.cfg.Host != ""
}

// SendDigest renders the losers digest and mails it to one recipient.
func (m *Mailer) SendDigest(to string, rows []losers.Loser) error {
	if !m.Enabled() {
		return fmt.Errorf("smtp not configured")
	}

	body, err := RenderDigest(rows, time.Now())
	if err != nil {
		return err
	}

	msg := bytes.Buffer{}
	fmt.Fprintf(&msg, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: Top 24h Losers\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	msg.WriteString(body)

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.User != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Host)
	}
	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{to}, msg.Bytes()); err != nil {
		return fmt.Errorf("send digest: %w", err)
	}
	return nil
}
