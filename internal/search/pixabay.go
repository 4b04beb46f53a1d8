package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/novamind-ai/novamind-api/internal/apperr"
)

const defaultBaseURL = "https://pixabay.com/api/"

// Image is one search hit, reshaped for clients.
type Image struct {
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url"`
	Tags         string `json:"tags"`
	SourceURL    string `json:"source_url"`
}

// PixabayClient queries the Pixabay REST API. Lookups are idempotent GETs,
// so transient failures are retried with bounded exponential backoff.
type PixabayClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

func NewPixabayClient(apiKey string) *PixabayClient {
	return &PixabayClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// NewPixabayClientWithBaseURL is used in tests to point at a local server.
func NewPixabayClientWithBaseURL(apiKey, baseURL string) *PixabayClient {
	c := NewPixabayClient(apiKey)
	c.baseURL = baseURL
	return c
}

type pixabayHit struct {
	WebformatURL string `json:"webformatURL"`
	PreviewURL   string `json:"previewURL"`
	Tags         string `json:"tags"`
	PageURL      string `json:"pageURL"`
}

type pixabayResponse struct {
	Hits []pixabayHit `json:"hits"`
}

// Search returns up to count images for the query.
func (c *PixabayClient) Search(ctx context.Context, query string, count int) ([]Image, error) {
	if count <= 0 {
		count = 4
	}

	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("q", query)
	params.Set("image_type", "photo")
	params.Set("safesearch", "true")
	params.Set("per_page", strconv.Itoa(count))

	reqURL := c.baseURL + "?" + params.Encode()

	var body []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			// Drain so the connection can be reused, then retry.
			io.Copy(io.Discard, resp.Body)
			return fmt.Errorf("pixabay returned status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("pixabay returned status %d", resp.StatusCode))
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 8 * time.Second
	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return nil, apperr.Upstream("failed to search images", err)
	}

	var parsed pixabayResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, apperr.Upstream("failed to search images", err)
	}

	images := make([]Image, 0, len(parsed.Hits))
	for _, hit := range parsed.Hits {
		if len(images) >= count {
			break
		}
		images = append(images, Image{
			URL:          hit.WebformatURL,
			ThumbnailURL: hit.PreviewURL,
			Tags:         hit.Tags,
			SourceURL:    hit.PageURL,
		})
	}
	return images, nil
}
