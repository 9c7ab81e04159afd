// Package discovery turns the two portal listings into a normalized stream
// of video references. All site-specific decode tolerance lives here; the
// pipeline only ever sees well-formed references.
package discovery

import (
	"context"
	"net/http"
	"time"

	"legis-text/models"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Feed produces the candidate videos for one source portal. A Fetch is
// one-shot: it returns the full candidate set for this run or an error.
type Feed interface {
	Name() string
	Fetch(ctx context.Context) ([]models.VideoReference, error)
}

// Client is the shared HTTP client for portal requests. The rate limiter is
// shared across feeds so a run stays polite to the hosting CDNs.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
}

func NewClient(timeout time.Duration, requestsPerSecond float64, burst int) *Client {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 2
	}
	if burst <= 0 {
		burst = 1
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

// Get performs a rate-limited GET. The caller owns the response body.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return c.http.Do(req)
}

// Discover fetches every feed and returns the merged candidate set, dropping
// items older than the horizon and duplicate locators across feeds. A failed
// feed is logged as a warning and does not poison the others.
func Discover(ctx context.Context, horizon time.Time, feeds ...Feed) []models.VideoReference {
	var merged []models.VideoReference
	seen := make(map[string]struct{})

	for _, feed := range feeds {
		items, err := feed.Fetch(ctx)
		if err != nil {
			logrus.WithError(err).WithField("feed", feed.Name()).Warn("Feed discovery failed")
			continue
		}

		kept := 0
		for _, item := range items {
			if item.PublishedAt.Before(horizon) {
				continue
			}
			if _, ok := seen[item.Locator]; ok {
				continue
			}
			seen[item.Locator] = struct{}{}
			merged = append(merged, item)
			kept++
		}

		logrus.WithFields(logrus.Fields{
			"feed":       feed.Name(),
			"discovered": len(items),
			"kept":       kept,
		}).Info("Feed discovery completed")
	}

	return merged
}
