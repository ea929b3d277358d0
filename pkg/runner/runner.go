package runner

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/deepfence/MispHarvester/pkg/config"
	"github.com/deepfence/MispHarvester/pkg/extract"
	"github.com/deepfence/MispHarvester/pkg/jobs"
	"github.com/deepfence/MispHarvester/pkg/output"
	"github.com/deepfence/MispHarvester/pkg/syncstate"
	"github.com/deepfence/MispHarvester/pkg/threatintel"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var ErrIncompleteBatch = errors.New("some downloads of the batch failed")

// Runner executes one harvest: list, diff against the marker, fetch the new
// files, advance the marker, extract and merge into the archive.
type Runner struct {
	cfg       config.Config
	runID     string
	client    *threatintel.Client
	state     *syncstate.Store
	fetcher   *threatintel.Fetcher
	extractor *extract.Extractor
	archive   *output.Archive
}

// New copies cfg; later changes to the caller's value do not affect the
// runner. A nil client gets one built from cfg.
func New(cfg config.Config, client *threatintel.Client) *Runner {
	if client == nil {
		client = threatintel.NewClient(cfg.HTTPTimeout, cfg.UserAgent)
	}
	cfg.AllowList = append([]string(nil), cfg.AllowList...)
	return &Runner{
		cfg:       cfg,
		runID:     uuid.NewString(),
		client:    client,
		state:     syncstate.NewStore(cfg.MarkerPath()),
		fetcher:   threatintel.NewFetcher(client, cfg.SourceURL, cfg.SaveDir),
		extractor: extract.New(cfg.AllowList),
		archive:   output.NewArchive(cfg.ArchivePath()),
	}
}

func (r *Runner) RunID() string {
	return r.runID
}

func (r *Runner) Run(ctx context.Context) (*Report, error) {
	report := &Report{RunID: r.runID, NewFiles: []string{}, Files: []output.FileSummary{}}

	listing, err := r.client.ListCandidateFiles(ctx, r.cfg.SourceURL, r.cfg.FileSuffix, r.cfg.ExcludeFile, r.cfg.ListingLimit)
	if err != nil {
		return report, fmt.Errorf("list remote files: %w", err)
	}
	report.Listing = listing

	marker, ok, err := r.state.Read()
	if err != nil {
		return report, err
	}
	if ok {
		report.PreviousMarker = marker
	}

	newFiles := syncstate.Diff(listing, marker, ok)
	report.NewFiles = newFiles
	if len(newFiles) == 0 {
		log.Info().Str("marker", marker).Msg("No new files found.")
		return report, nil
	}
	log.Info().Str("marker", marker).Int("new", len(newFiles)).Strs("files", newFiles).Msg("new files found")

	fetched := r.fetcher.FetchAll(ctx, newFiles)
	if err := ctx.Err(); err != nil {
		return report, err
	}

	failed := 0
	for _, f := range fetched {
		if !f.OK() {
			failed++
		}
	}
	if failed > 0 && r.cfg.Strict {
		report.Files = summarize(fetched, nil)
		return report, fmt.Errorf("%d of %d files: %w", failed, len(fetched), ErrIncompleteBatch)
	}

	if err := r.state.Write(listing[0]); err != nil {
		return report, err
	}
	report.Marker = listing[0]
	log.Info().Str("marker", listing[0]).Int("failed", failed).Msg("marker advanced")

	return report, r.extractAndMerge(ctx, fetched, report)
}

// extractAndMerge extracts the fetched files and merges their records into
// the archive. A cancelled context leaves the archive untouched.
func (r *Runner) extractAndMerge(ctx context.Context, fetched []threatintel.FetchResult, report *Report) error {
	var paths []string
	for _, f := range fetched {
		if f.OK() {
			paths = append(paths, f.Path)
		}
	}

	extracted := r.extractor.ExtractAll(ctx, paths)
	report.Files = summarize(fetched, extracted)
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("extraction interrupted, archive not updated: %w", err)
	}

	var records []extract.Record
	for _, res := range extracted {
		records = append(records, res.Records...)
	}
	report.RecordsAdded = len(records)

	total, err := r.archive.MergeAndPersist(records)
	if err != nil {
		return err
	}
	report.ArchiveRecords = total
	return nil
}

func summarize(fetched []threatintel.FetchResult, extracted []extract.FileResult) []output.FileSummary {
	byPath := make(map[string]extract.FileResult, len(extracted))
	for _, e := range extracted {
		byPath[e.Path] = e
	}

	rows := make([]output.FileSummary, 0, len(fetched))
	for _, f := range fetched {
		row := output.FileSummary{
			File:     f.Name,
			Fetched:  f.OK(),
			Bytes:    f.Size,
			MimeType: f.MimeType,
		}
		if f.Err != nil {
			row.Error = f.Err.Error()
		}
		if e, ok := byPath[f.Path]; ok && f.OK() {
			row.Records = len(e.Records)
			row.Skipped = e.Skipped()
			if e.Err != nil {
				row.Error = e.Err.Error()
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// Start runs the harvest once, tracking it in the status file, and prints
// the outcome to w in outFormat.
func (r *Runner) Start(ctx context.Context, outFormat string, w io.Writer) error {
	res, done := jobs.StartStatusReporter(ctx, r.cfg.StatusPath(), r.runID, jobs.DefaultStatusInterval)

	report, err := r.Run(ctx)

	select {
	case res <- err:
	case <-done:
	}
	<-done

	if err != nil {
		log.Error().Err(err).Msg("harvest failed")
		return err
	}

	if outFormat == config.JSONOutput {
		return output.PrintJSON(w, report)
	}

	if len(report.Files) > 0 {
		if err := output.WriteTableOutput(w, report.Files); err != nil {
			log.Error().Err(err).Msg("error while writing summary")
			return err
		}
	}
	fmt.Fprintln(w, "summary:")
	fmt.Fprintf(w, "  listed=%d new=%d failed=%d added=%d archive=%d\n",
		len(report.Listing), len(report.NewFiles), report.FailedDownloads(), report.RecordsAdded, report.ArchiveRecords)
	return nil
}
