package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"legis-text/errors"
	"legis-text/models"

	"github.com/sirupsen/logrus"
)

// The Senate publishes through Castus; playable streams live on CloudFront
// as HLS manifests addressed by the listing's _id.
const senateHLSTemplate = "https://dlttx48mxf9m3.cloudfront.net/outputs/%s/Default/HLS/out.m3u8"

var senateDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// senateItem is the tolerant shape of one listing entry. The API has shipped
// several field spellings for the media URL over time, so all of them are
// decoded and the first non-empty one wins.
type senateItem struct {
	ID           string          `json:"_id"`
	URL          string          `json:"url"`
	VideoURL     string          `json:"video_url"`
	MP4URL       string          `json:"mp4_url"`
	VideoURLAlt  string          `json:"videoUrl"`
	Date         string          `json:"date"`
	OriginalDate string          `json:"original_date"`
	Category     string          `json:"category"`
	Committee    string          `json:"committee"`
	Title        string          `json:"title"`
	Metadata     *senateMetadata `json:"metadata"`
}

type senateMetadata struct {
	Filename string `json:"filename"`
}

// SenateFeed reads the Senate VOD listing API.
type SenateFeed struct {
	client  *Client
	feedURL string
}

func NewSenateFeed(client *Client, feedURL string) *SenateFeed {
	return &SenateFeed{client: client, feedURL: feedURL}
}

func (f *SenateFeed) Name() string { return "senate" }

func (f *SenateFeed) Fetch(ctx context.Context) ([]models.VideoReference, error) {
	const op = "SenateFeed.Fetch"

	resp, err := f.client.Get(ctx, f.feedURL)
	if err != nil {
		return nil, errors.Discovery(op, err, "failed to fetch senate listing")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Discovery(op,
			fmt.Errorf("unexpected status code: %d", resp.StatusCode),
			"failed to fetch senate listing")
	}

	var listing []senateItem
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, errors.Discovery(op, err, "failed to decode senate listing")
	}

	var items []models.VideoReference
	seen := make(map[string]struct{})

	for _, item := range listing {
		if item.ID == "" {
			continue
		}

		locator := item.locator()
		if _, ok := seen[locator]; ok {
			continue
		}

		published, ok := item.publishedAt()
		if !ok {
			// Same policy as the house feed: an item without a trustworthy
			// date never reaches the recency filter.
			logrus.WithField("url", locator).Warn("Skipping senate video without a parseable date")
			continue
		}

		seen[locator] = struct{}{}
		items = append(items, models.VideoReference{
			Source:      models.SourceSenate,
			Locator:     locator,
			RawLocator:  locator,
			Category:    item.category(),
			PublishedAt: published,
		})
	}

	return items, nil
}

func (i senateItem) locator() string {
	for _, candidate := range []string{i.URL, i.VideoURL, i.MP4URL, i.VideoURLAlt} {
		if candidate != "" {
			return candidate
		}
	}
	return fmt.Sprintf(senateHLSTemplate, i.ID)
}

func (i senateItem) publishedAt() (time.Time, bool) {
	raw := i.OriginalDate
	if raw == "" {
		raw = i.Date
	}
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range senateDateLayouts {
		if date, err := time.Parse(layout, raw); err == nil {
			return date, true
		}
	}
	return time.Time{}, false
}

func (i senateItem) category() string {
	if i.Metadata != nil && i.Metadata.Filename != "" {
		return i.Metadata.Filename
	}
	for _, candidate := range []string{i.Category, i.Committee, i.Title} {
		if candidate != "" {
			return candidate
		}
	}
	return ""
}
