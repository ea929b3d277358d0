package extract

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// FileResult holds the records extracted from one local event file.
type FileResult struct {
	Path    string
	Records []Record
	Err     error
}

// Skipped reports whether the file was unreadable or not valid JSON.
func (r FileResult) Skipped() bool {
	return r.Err != nil
}

// ExtractAll extracts every path concurrently. Failures are kept per file;
// results follow the order of paths.
func (e *Extractor) ExtractAll(ctx context.Context, paths []string) []FileResult {
	results := make([]FileResult, len(paths))

	var g errgroup.Group
	for i, path := range paths {
		g.Go(func() error {
			results[i] = e.extractLogged(ctx, path)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (e *Extractor) extractLogged(ctx context.Context, path string) FileResult {
	res := FileResult{Path: path}
	name := filepath.Base(path)

	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	res.Records, res.Err = e.ExtractFile(path)
	switch {
	case errors.Is(res.Err, ErrInvalidJSON):
		log.Warn().Str("file", name).Str("mime", sniff(path)).Msgf("Skipping %s, invalid JSON format", name)
	case res.Err != nil:
		log.Error().Err(res.Err).Str("file", name).Msg("failed to read event file")
	case len(res.Records) == 0:
		log.Info().Str("file", name).Msg("no records in file")
	default:
		log.Info().Str("file", name).Int("records", len(res.Records)).Msgf("Processing: %s", name)
	}
	return res
}

func sniff(path string) string {
	m, err := mimetype.DetectFile(path)
	if err != nil {
		return ""
	}
	return m.String()
}
