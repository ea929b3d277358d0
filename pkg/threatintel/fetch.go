package threatintel

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/deepfence/MispHarvester/utils"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// FetchResult is the outcome of downloading one event file.
type FetchResult struct {
	Name     string
	Path     string
	Size     int
	Digest   uint64
	MimeType string
	Err      error
}

func (r FetchResult) OK() bool {
	return r.Err == nil
}

// Fetcher downloads event files next to each other in Dir.
type Fetcher struct {
	Client  *Client
	BaseURL string
	Dir     string
}

func NewFetcher(client *Client, baseURL, dir string) *Fetcher {
	return &Fetcher{Client: client, BaseURL: baseURL, Dir: dir}
}

// FetchAll downloads every name concurrently. A failed download only marks
// its own result; the others run to completion. Results follow the order of
// names.
func (f *Fetcher) FetchAll(ctx context.Context, names []string) []FetchResult {
	results := make([]FetchResult, len(names))

	var g errgroup.Group
	for i, name := range names {
		g.Go(func() error {
			results[i] = f.fetchOne(ctx, name)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (f *Fetcher) fetchOne(ctx context.Context, name string) FetchResult {
	res := FetchResult{Name: name}

	if err := checkName(name); err != nil {
		res.Err = err
		log.Error().Err(err).Str("file", name).Msg("skipping listing entry")
		return res
	}
	res.Path = filepath.Join(f.Dir, name)

	buf, err := f.Client.DownloadFile(ctx, FileURL(f.BaseURL, name))
	if err != nil {
		res.Err = err
		log.Error().Err(err).Str("file", name).Msg("download failed")
		return res
	}

	data := buf.Bytes()
	if err := utils.WriteFileAtomic(res.Path, data, 0644); err != nil {
		res.Err = fmt.Errorf("write %s: %w", res.Path, err)
		log.Error().Err(res.Err).Str("file", name).Msg("download failed")
		return res
	}

	res.Size = len(data)
	res.Digest = PayloadDigest(data)
	res.MimeType = DetectMimeType(data)

	log.Info().Str("file", name).Int("bytes", res.Size).
		Str("mime", res.MimeType).Str("digest", fmt.Sprintf("%016x", res.Digest)).
		Msgf("%s downloaded", name)
	return res
}
