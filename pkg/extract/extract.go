// Package extract flattens MISP event files into indicator records.
//
// An event file looks like
//
//	{"Event": {"Object": [{"name": "file", "Attribute": [
//	    {"type": "md5", "value": "...", "Tag": [{"name": "..."}]},
//	    {"type": "sha256", "value": "..."}]}]}}
//
// Each entry of Event.Object yields exactly one Record. Files that are not
// valid JSON yield ErrInvalidJSON; files without Event.Object yield nothing.
package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var ErrInvalidJSON = errors.New("invalid JSON format")

const md5Type = "md5"

type Extractor struct {
	allow map[string]struct{}
}

func New(allowList []string) *Extractor {
	allow := make(map[string]struct{}, len(allowList))
	for _, t := range allowList {
		allow[t] = struct{}{}
	}
	return &Extractor{allow: allow}
}

func (e *Extractor) Allowed(attrType string) bool {
	_, ok := e.allow[attrType]
	return ok
}

// ExtractFile reads path and extracts its records. The record file_name is
// the base name of path.
func (e *Extractor) ExtractFile(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return e.ExtractBytes(filepath.Base(path), data)
}

// ExtractBytes extracts the records of one event document. It only fails
// with ErrInvalidJSON; documents of an unexpected shape produce no records.
func (e *Extractor) ExtractBytes(fileName string, data []byte) ([]Record, error) {
	if !json.Valid(data) {
		return nil, fmt.Errorf("%s: %w", fileName, ErrInvalidJSON)
	}

	var doc map[string]json.RawMessage
	if json.Unmarshal(data, &doc) != nil {
		return nil, nil
	}
	var event map[string]json.RawMessage
	if raw, ok := doc["Event"]; !ok || json.Unmarshal(raw, &event) != nil {
		return nil, nil
	}
	var objects []json.RawMessage
	if raw, ok := event["Object"]; !ok || json.Unmarshal(raw, &objects) != nil {
		return nil, nil
	}

	records := make([]Record, 0, len(objects))
	for _, raw := range objects {
		var obj map[string]json.RawMessage
		if json.Unmarshal(raw, &obj) != nil || obj == nil {
			continue
		}
		records = append(records, e.extractObject(fileName, obj))
	}
	return records, nil
}

func (e *Extractor) extractObject(fileName string, obj map[string]json.RawMessage) Record {
	rec := Record{FileName: fileName, Name: obj["name"]}

	var attributes []json.RawMessage
	if raw, ok := obj["Attribute"]; ok {
		_ = json.Unmarshal(raw, &attributes)
	}

	for _, raw := range attributes {
		var attr map[string]json.RawMessage
		if json.Unmarshal(raw, &attr) != nil || attr == nil {
			continue
		}
		var attrType string
		if json.Unmarshal(attr["type"], &attrType) != nil || !e.Allowed(attrType) {
			continue
		}

		value, hasValue := attr["value"]
		if hasValue {
			rec.setIndicator(attrType, value)
		}

		if attrType != md5Type {
			continue
		}
		rec.FileType = value
		if names := tagNames(attr["Tag"]); len(names) > 0 {
			rec.TagName = names
		}
	}
	return rec
}

func tagNames(raw json.RawMessage) []json.RawMessage {
	var tags []json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &tags) != nil {
		return nil
	}
	var names []json.RawMessage
	for _, t := range tags {
		var tag map[string]json.RawMessage
		if json.Unmarshal(t, &tag) != nil {
			continue
		}
		if name, ok := tag["name"]; ok {
			names = append(names, name)
		}
	}
	return names
}
