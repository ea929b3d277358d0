package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/deepfence/MispHarvester/pkg/extract"
	"github.com/deepfence/MispHarvester/utils"
	"github.com/rs/zerolog/log"
)

const archiveIndent = "    "

// Archive is the cumulative JSON array of extracted records.
type Archive struct {
	Path string
}

func NewArchive(path string) *Archive {
	return &Archive{Path: path}
}

// Load returns the records already in the archive. A missing, empty or
// unparsable archive loads as empty; only I/O errors are returned. The
// archive must be one JSON array: files holding several concatenated
// documents, as appended by older releases, count as unparsable.
func (a *Archive) Load() ([]json.RawMessage, error) {
	exists, err := utils.PathExists(a.Path)
	if err != nil {
		return nil, fmt.Errorf("stat archive %s: %w", a.Path, err)
	}
	if !exists {
		return []json.RawMessage{}, nil
	}

	data, err := os.ReadFile(a.Path)
	if err != nil {
		return nil, fmt.Errorf("read archive %s: %w", a.Path, err)
	}

	var prior []json.RawMessage
	if err := json.Unmarshal(data, &prior); err != nil || prior == nil {
		log.Warn().Err(err).Str("archive", a.Path).Msg("archive is not a JSON array, starting from an empty archive")
		return []json.RawMessage{}, nil
	}
	return prior, nil
}

// Merge appends records after prior.
func Merge(prior []json.RawMessage, records []extract.Record) ([]json.RawMessage, error) {
	all := make([]json.RawMessage, 0, len(prior)+len(records))
	all = append(all, prior...)
	for _, r := range records {
		b, err := r.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("marshal record from %s: %w", r.FileName, err)
		}
		all = append(all, b)
	}
	return all, nil
}

// Persist replaces the archive with all as one indented JSON array.
func (a *Archive) Persist(all []json.RawMessage) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", archiveIndent)
	if err := enc.Encode(all); err != nil {
		log.Error().Err(err).Msg("Couldn't format json output")
		return err
	}
	if err := utils.WriteFileAtomic(a.Path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write archive %s: %w", a.Path, err)
	}
	return nil
}

// MergeAndPersist loads the archive, appends records and writes it back.
// It returns the number of records in the archive afterwards.
func (a *Archive) MergeAndPersist(records []extract.Record) (int, error) {
	prior, err := a.Load()
	if err != nil {
		return 0, err
	}
	all, err := Merge(prior, records)
	if err != nil {
		return 0, err
	}
	if err := a.Persist(all); err != nil {
		return 0, err
	}
	log.Info().Str("archive", a.Path).Int("prior", len(prior)).Int("added", len(records)).Msg("archive updated")
	return len(all), nil
}
