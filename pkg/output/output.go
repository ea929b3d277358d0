package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/deepfence/MispHarvester/utils"
	tw "github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog/log"
)

const (
	Indent = "  " // Indentation for Json printing
)

// run status
const (
	StatusInProgress = "IN_PROGRESS"
	StatusComplete   = "COMPLETE"
	StatusError      = "ERROR"
	StatusCancelled  = "CANCELLED"
)

// FileSummary is one row of the end of run summary.
type FileSummary struct {
	File     string `json:"file"`
	Fetched  bool   `json:"fetched"`
	Records  int    `json:"records"`
	Skipped  bool   `json:"skipped"`
	Bytes    int    `json:"bytes,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
	Error    string `json:"error,omitempty"`
}

func WriteTableOutput(w io.Writer, report []FileSummary) error {
	table := tw.NewWriter(w)
	table.Header("File", "Fetched", "Bytes", "Mime Type", "Records", "Error")

	for _, r := range report {
		errMsg := r.Error
		if errMsg == "" && r.Skipped {
			errMsg = "skipped"
		}
		if err := table.Append(r.File, strconv.FormatBool(r.Fetched), strconv.Itoa(r.Bytes),
			r.MimeType, strconv.Itoa(r.Records), errMsg); err != nil {
			return err
		}
	}
	return table.Render()
}

func PrintJSON(w io.Writer, v interface{}) error {
	file, err := json.MarshalIndent(v, "", Indent)
	if err != nil {
		log.Error().Err(err).Msg("PrintJSON: Couldn't format json output")
		return err
	}

	_, err = fmt.Fprintln(w, string(file))
	return err
}

func writeToFile(msg string, filename string) error {
	f, err := utils.OpenAppend(filename, 0600)
	if err != nil {
		return fmt.Errorf("open %s: %w", filename, err)
	}

	defer f.Close()

	msg = strings.ReplaceAll(msg, "\n", " ")
	if _, err = f.WriteString(msg + "\n"); err != nil {
		return err
	}
	return nil
}

// WriteRunStatus appends one JSON status line for runID to filename.
func WriteRunStatus(filename, status, runID, message string) {
	var statusDoc = make(map[string]interface{})
	statusDoc["run_id"] = runID
	statusDoc["run_status"] = status
	statusDoc["run_message"] = message
	statusDoc["timestamp"] = time.Now().UTC().Format("2006-01-02T15:04:05.000") + "Z"

	byteJSON, err := json.Marshal(statusDoc)
	if err != nil {
		log.Error().Err(err).Msg("Error marshalling json for run status")
		return
	}

	err = writeToFile(string(byteJSON), filename)
	if err != nil {
		log.Error().Err(err).Str("file", filename).Msg("Error writing run status")
		return
	}
}
