package discovery

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"legis-text/errors"
	"legis-text/models"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
)

const houseArchiveBase = "https://www.house.mi.gov/ArchiveVideoFiles"

var houseDateLayouts = []string{"01/02/2006", "2006-01-02"}

// HouseFeed scrapes the House video archive page. The page only lists the
// requested year, so the feed walks every year the recency window spans via
// the Year query parameter.
type HouseFeed struct {
	client   *Client
	pageURL  string
	daysBack int
	now      func() time.Time
}

func NewHouseFeed(client *Client, pageURL string, daysBack int) *HouseFeed {
	return &HouseFeed{
		client:   client,
		pageURL:  pageURL,
		daysBack: daysBack,
		now:      time.Now,
	}
}

func (f *HouseFeed) Name() string { return "house" }

func (f *HouseFeed) Fetch(ctx context.Context) ([]models.VideoReference, error) {
	const op = "HouseFeed.Fetch"

	now := f.now().UTC()
	cutoffYear := now.AddDate(0, 0, -f.daysBack).Year()

	var (
		items   []models.VideoReference
		seen    = make(map[string]struct{})
		lastErr error
	)

	for year := cutoffYear; year <= now.Year(); year++ {
		yearItems, err := f.fetchYear(ctx, year)
		if err != nil {
			// One bad year must not lose the others.
			logrus.WithError(err).WithField("year", year).Warn("Failed to fetch house archive year")
			lastErr = err
			continue
		}
		for _, item := range yearItems {
			if _, ok := seen[item.Locator]; ok {
				continue
			}
			seen[item.Locator] = struct{}{}
			items = append(items, item)
		}
	}

	if len(items) == 0 && lastErr != nil {
		return nil, errors.Discovery(op, lastErr, "house archive unavailable")
	}
	return items, nil
}

func (f *HouseFeed) fetchYear(ctx context.Context, year int) ([]models.VideoReference, error) {
	sep := "?"
	if strings.Contains(f.pageURL, "?") {
		sep = "&"
	}
	pageURL := fmt.Sprintf("%s%sYear=%d", f.pageURL, sep, year)

	resp, err := f.client.Get(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var items []models.VideoReference
	doc.Find("a[href*='.mp4']").Each(func(_ int, link *goquery.Selection) {
		raw, ok := link.Attr("href")
		if !ok || raw == "" {
			return
		}

		locator := normalizeHouseURL(raw)
		if locator == "" {
			return
		}

		published, category, ok := houseRowDetails(link)
		if !ok {
			// No parseable date means the recency filter cannot be trusted;
			// skip the item instead of stamping it with "now".
			logrus.WithField("url", locator).Warn("Skipping house video without a parseable date")
			return
		}

		items = append(items, models.VideoReference{
			Source:      models.SourceHouse,
			Locator:     locator,
			RawLocator:  raw,
			Category:    category,
			PublishedAt: published,
		})
	})

	return items, nil
}

// houseRowDetails pulls the date and category out of the markup around an
// archive link: a preceding span.date, or the cells of the enclosing table
// row (the first cell that parses as a date wins, the first other non-empty
// cell is the category).
func houseRowDetails(link *goquery.Selection) (time.Time, string, bool) {
	if span := link.Parent().Find("span.date").First(); span.Length() > 0 {
		if date, ok := parseHouseDate(span.Text()); ok {
			return date, "", true
		}
	}

	row := link.Closest("tr")
	if row.Length() == 0 {
		return time.Time{}, "", false
	}

	var (
		date     time.Time
		dateCell *goquery.Selection
		category string
	)

	cells := row.Find("td, th")
	cells.EachWithBreak(func(_ int, cell *goquery.Selection) bool {
		if parsed, ok := parseHouseDate(cell.Text()); ok {
			date = parsed
			dateCell = cell
			return false
		}
		return true
	})
	if dateCell == nil {
		return time.Time{}, "", false
	}

	cells.EachWithBreak(func(_ int, cell *goquery.Selection) bool {
		text := strings.TrimSpace(cell.Text())
		if text != "" && !cell.IsSelection(dateCell) && cell.Find("a").Length() == 0 {
			category = text
			return false
		}
		return true
	})

	return date, category, true
}

func parseHouseDate(text string) (time.Time, bool) {
	text = strings.TrimSpace(text)
	for _, layout := range houseDateLayouts {
		if date, err := time.Parse(layout, text); err == nil {
			return date, true
		}
	}
	return time.Time{}, false
}

// normalizeHouseURL converts whatever link the House site gives us into a
// direct MP4 URL. Player links carry the filename in a video query
// parameter; direct archive links are returned unchanged.
func normalizeHouseURL(raw string) string {
	if raw == "" {
		return ""
	}

	if strings.Contains(raw, "ArchiveVideoFiles") && strings.HasSuffix(strings.ToLower(raw), ".mp4") {
		return raw
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	if video := parsed.Query().Get("video"); video != "" && strings.HasSuffix(strings.ToLower(video), ".mp4") {
		return fmt.Sprintf("%s/%s", houseArchiveBase, video)
	}

	if strings.HasSuffix(strings.ToLower(parsed.Path), ".mp4") {
		segments := strings.Split(parsed.Path, "/")
		return fmt.Sprintf("%s/%s", houseArchiveBase, segments[len(segments)-1])
	}

	// The downloader may still be able to handle it.
	return raw
}
