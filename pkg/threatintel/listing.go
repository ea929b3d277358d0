package threatintel

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
)

// ParseListing returns the href targets of every anchor in page that end in
// suffix, in page order. Duplicates and exclude are dropped. When limit is
// positive only the first limit names are kept.
func ParseListing(page []byte, suffix, exclude string, limit int) ([]string, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse listing: %w", err)
	}

	names := []string{}
	seen := map[string]struct{}{}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key != "href" {
					continue
				}
				href := attr.Val
				if !strings.HasSuffix(href, suffix) || href == exclude {
					continue
				}
				if _, ok := seen[href]; ok {
					continue
				}
				seen[href] = struct{}{}
				names = append(names, href)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if limit > 0 && len(names) > limit {
		names = names[:limit]
	}
	return names, nil
}

// ListCandidateFiles fetches the listing at sourceURL and extracts the
// candidate event file names, most recent first as published upstream.
func (c *Client) ListCandidateFiles(ctx context.Context, sourceURL, suffix, exclude string, limit int) ([]string, error) {
	page, err := c.FetchListing(ctx, sourceURL)
	if err != nil {
		return nil, err
	}
	names, err := ParseListing(page, suffix, exclude, limit)
	if err != nil {
		return nil, err
	}
	log.Info().Str("url", sourceURL).Int("files", len(names)).Msg("listing fetched")
	return names, nil
}
