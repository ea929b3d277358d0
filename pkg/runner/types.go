package runner

import (
	"github.com/deepfence/MispHarvester/pkg/output"
)

// Report describes one harvester run.
type Report struct {
	RunID          string               `json:"run_id"`
	Listing        []string             `json:"listing"`
	PreviousMarker string               `json:"previous_marker,omitempty"`
	NewFiles       []string             `json:"new_files"`
	Marker         string               `json:"marker,omitempty"`
	Files          []output.FileSummary `json:"files"`
	RecordsAdded   int                  `json:"records_added"`
	ArchiveRecords int                  `json:"archive_records"`
}

func (r *Report) FailedDownloads() int {
	n := 0
	for _, f := range r.Files {
		if !f.Fetched {
			n++
		}
	}
	return n
}
