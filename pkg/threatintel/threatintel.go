package threatintel

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

var ErrBadStatus = errors.New("invalid response code")

// Client performs the plain GET requests against the feed directory.
type Client struct {
	HTTP      *http.Client
	UserAgent string
}

// NewClient returns a client honouring proxy environment variables.
// A zero timeout leaves requests bounded only by their context.
func NewClient(timeout time.Duration, userAgent string) *Client {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.Proxy = http.ProxyFromEnvironment

	return &Client{
		HTTP:      &http.Client{Timeout: timeout, Transport: tr},
		UserAgent: userAgent,
	}
}

// DownloadFile fetches url and returns the whole body.
func (c *Client) DownloadFile(ctx context.Context, url string) (*bytes.Buffer, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		log.Error().Err(err).Str("url", url).Msg("failed to construct new http request")
		return nil, err
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	log.Debug().Str("url", url).Msg("GET")

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: %d %w", url, resp.StatusCode, ErrBadStatus)
	}

	var out bytes.Buffer
	w := bufio.NewWriter(&out)
	if _, err = io.Copy(w, resp.Body); err != nil {
		return nil, fmt.Errorf("read body of %s: %w", url, err)
	}
	if err := w.Flush(); err != nil {
		return nil, err
	}

	return &out, nil
}

// FetchListing downloads the directory listing page.
func (c *Client) FetchListing(ctx context.Context, sourceURL string) ([]byte, error) {
	buf, err := c.DownloadFile(ctx, sourceURL)
	if err != nil {
		return nil, fmt.Errorf("fetch listing: %w", err)
	}
	return buf.Bytes(), nil
}
