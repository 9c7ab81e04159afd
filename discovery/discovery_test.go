package discovery

import (
	"context"
	"fmt"
	"testing"
	"time"

	"legis-text/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFeed struct {
	name  string
	items []models.VideoReference
	err   error
}

func (f *fakeFeed) Name() string { return f.name }

func (f *fakeFeed) Fetch(ctx context.Context) ([]models.VideoReference, error) {
	return f.items, f.err
}

func ref(locator string, published time.Time) models.VideoReference {
	return models.VideoReference{
		Source:      models.SourceHouse,
		Locator:     locator,
		RawLocator:  locator,
		PublishedAt: published,
	}
}

func TestDiscoverRecencyFilter(t *testing.T) {
	horizon := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	feed := &fakeFeed{
		name: "house",
		items: []models.VideoReference{
			ref("https://example.test/old.mp4", horizon.AddDate(0, 0, -1)),
			ref("https://example.test/edge.mp4", horizon),
			ref("https://example.test/new.mp4", horizon.AddDate(0, 0, 1)),
		},
	}

	got := Discover(context.Background(), horizon, feed)
	require.Len(t, got, 2)
	assert.Equal(t, "https://example.test/edge.mp4", got[0].Locator)
	assert.Equal(t, "https://example.test/new.mp4", got[1].Locator)
}

func TestDiscoverIsolatesFeedFailure(t *testing.T) {
	horizon := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	broken := &fakeFeed{name: "house", err: fmt.Errorf("archive unreachable")}
	healthy := &fakeFeed{
		name: "senate",
		items: []models.VideoReference{
			ref("https://example.test/a.m3u8", horizon.AddDate(0, 0, 3)),
		},
	}

	got := Discover(context.Background(), horizon, broken, healthy)
	require.Len(t, got, 1)
	assert.Equal(t, "https://example.test/a.m3u8", got[0].Locator)
}

func TestDiscoverDedupsAcrossFeeds(t *testing.T) {
	horizon := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	published := horizon.AddDate(0, 0, 5)

	first := &fakeFeed{name: "house", items: []models.VideoReference{
		ref("https://example.test/shared.mp4", published),
	}}
	second := &fakeFeed{name: "senate", items: []models.VideoReference{
		ref("https://example.test/shared.mp4", published),
		ref("https://example.test/other.mp4", published),
	}}

	got := Discover(context.Background(), horizon, first, second)
	assert.Len(t, got, 2)
}

func TestDiscoverAllFeedsFailing(t *testing.T) {
	horizon := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	got := Discover(context.Background(), horizon,
		&fakeFeed{name: "house", err: fmt.Errorf("down")},
		&fakeFeed{name: "senate", err: fmt.Errorf("down")},
	)
	assert.Empty(t, got)
}
