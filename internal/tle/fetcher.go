package tle

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultSourceURL = "https://celestrak.org/NORAD/elements/gp.php?GROUP=active&FORMAT=tle"

// Fetcher retrieves raw TLE data from one or more remote sources.
type Fetcher struct {
	sourceURL  string
	extraURLs  []string
	httpClient *http.Client
}

// NewFetcher creates a Fetcher for the given primary source URL plus any
// extra per-satellite sources whose results are appended to the dataset.
func NewFetcher(sourceURL string, extraURLs []string) *Fetcher {
	if sourceURL == "" {
		sourceURL = defaultSourceURL
	}
	return &Fetcher{
		sourceURL: sourceURL,
		extraURLs: extraURLs,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SourceURL returns the configured primary source URL.
func (f *Fetcher) SourceURL() string {
	return f.sourceURL
}

// Fetch retrieves raw TLE data from the primary source and every extra
// source, concatenated. An extra source failing is an error; partial
// datasets would silently drop satellites.
func (f *Fetcher) Fetch(ctx context.Context) ([]byte, error) {
	var buf bytes.Buffer

	for _, url := range append([]string{f.sourceURL}, f.extraURLs...) {
		data, err := f.fetchOne(ctx, url)
		if err != nil {
			return nil, err
		}
		buf.Write(data)
		if len(data) > 0 && data[len(data)-1] != '\n' {
			buf.WriteByte('\n')
		}
	}

	return buf.Bytes(), nil
}

func (f *Fetcher) fetchOne(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching TLE data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d from %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	return body, nil
}
