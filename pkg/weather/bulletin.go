// Package weather reads severe-weather bulletins published as HTML pages and
// turns the warnings that concern a field's location into weather signals.
package weather

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"agriadvisor/entities"
	"agriadvisor/pkg/intake"
	"agriadvisor/pkg/logger"
)

const DefaultMaxBytes = 1_500_000

// Warning is one bulletin entry. An empty Area applies everywhere.
type Warning struct {
	Kind     string
	Severity string
	Area     string
	Message  string
}

type Bulletin struct {
	Title    string
	Warnings []Warning
}

// Source yields the warnings that apply to a location.
type Source interface {
	Warnings(ctx context.Context, location string) ([]entities.WeatherWarning, error)
}

type Client struct {
	url      string
	httpc    *http.Client
	maxBytes int64
	log      *logger.Logger
}

func NewClient(url string, log *logger.Logger) *Client {
	return &Client{
		url:      url,
		httpc:    &http.Client{Timeout: 20 * time.Second},
		maxBytes: DefaultMaxBytes,
		log:      logger.OrNop(log).With("component", "weather"),
	}
}

func (c *Client) Warnings(ctx context.Context, location string) ([]entities.WeatherWarning, error) {
	b, err := c.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	ws, err := b.For(location)
	if err != nil {
		return nil, err
	}
	c.log.Debug("bulletin read", "title", b.Title, "entries", len(b.Warnings), "matched", len(ws), "location", location)
	return ws, nil
}

// Fetch downloads and parses the configured bulletin. Bodies over the byte
// cap are refused.
func (c *Client) Fetch(ctx context.Context) (*Bulletin, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, eris.Wrap(err, "weather: build request")
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "weather: fetch bulletin")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("weather: bulletin status %d", resp.StatusCode)
	}
	if resp.ContentLength > c.maxBytes {
		return nil, eris.New("weather: bulletin too large")
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, eris.Wrap(err, "weather: read bulletin")
	}
	if int64(len(b)) > c.maxBytes {
		return nil, eris.New("weather: bulletin too large")
	}
	ct := strings.ToLower(resp.Header.Get("Content-Type"))
	if strings.Contains(ct, "text/plain") {
		return ParseText(string(b)), nil
	}
	if ct != "" && !strings.Contains(ct, "text/html") {
		return nil, eris.Errorf("weather: unsupported content-type %s", ct)
	}
	return ParseHTML(bytes.NewReader(b))
}

// ParseHTML reads warnings from elements carrying data-kind (with optional
// data-severity and data-area attributes) or, failing that, from the rows
// of a table.warnings laid out as kind, severity, area, message.
func ParseHTML(r io.Reader) (*Bulletin, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, eris.Wrap(err, "weather: parse bulletin")
	}
	out := &Bulletin{Title: strings.TrimSpace(doc.Find("title").First().Text())}

	doc.Find("[data-kind]").Each(func(_ int, s *goquery.Selection) {
		kind, _ := s.Attr("data-kind")
		sev, _ := s.Attr("data-severity")
		area, _ := s.Attr("data-area")
		out.Warnings = append(out.Warnings, Warning{
			Kind:     clean(kind),
			Severity: clean(sev),
			Area:     clean(area),
			Message:  clean(s.Text()),
		})
	})
	if len(out.Warnings) > 0 {
		return out, nil
	}

	doc.Find("table.warnings tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() < 2 {
			return
		}
		cell := func(i int) string { return clean(cells.Eq(i).Text()) }
		out.Warnings = append(out.Warnings, Warning{Kind: cell(0), Severity: cell(1), Area: cell(2), Message: cell(3)})
	})
	return out, nil
}

// ParseText reads "SEVERITY | kind | area | message" lines. Lines that do
// not split into at least two parts are skipped.
func ParseText(s string) *Bulletin {
	out := &Bulletin{}
	for i, line := range strings.Split(strings.ReplaceAll(s, "\r", ""), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, "|")
		if len(parts) < 2 {
			if i == 0 {
				out.Title = line
			}
			continue
		}
		for len(parts) < 4 {
			parts = append(parts, "")
		}
		out.Warnings = append(out.Warnings, Warning{
			Severity: clean(parts[0]),
			Kind:     clean(parts[1]),
			Area:     clean(parts[2]),
			Message:  clean(strings.Join(parts[3:], "|")),
		})
	}
	return out
}

// For keeps the warnings whose area is empty or names the location, and
// normalizes their severities.
func (b *Bulletin) For(location string) ([]entities.WeatherWarning, error) {
	loc := strings.ToLower(strings.TrimSpace(location))
	var raw []intake.RawWarning
	for _, w := range b.Warnings {
		if w.Kind == "" && w.Message == "" {
			continue
		}
		area := strings.ToLower(w.Area)
		if area != "" && area != "all" && (loc == "" || !(strings.Contains(loc, area) || strings.Contains(area, loc))) {
			continue
		}
		raw = append(raw, intake.RawWarning{Kind: w.Kind, Severity: severityWord(w.Severity), Message: w.Message})
	}
	ws, err := intake.NormalizeWarnings(raw)
	if err != nil {
		return nil, fmt.Errorf("bulletin: %w", err)
	}
	return ws, nil
}

// severityWord maps the vocabulary bulletins use onto low/medium/high.
func severityWord(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "red", "extreme", "severe", "warning", "high":
		return string(entities.SeverityHigh)
	case "orange", "amber", "moderate", "watch", "medium":
		return string(entities.SeverityMedium)
	case "yellow", "minor", "advisory", "low":
		return string(entities.SeverityLow)
	}
	return ""
}

func clean(s string) string { return strings.Join(strings.Fields(s), " ") }
