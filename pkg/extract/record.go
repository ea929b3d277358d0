package extract

import (
	"bytes"
	"encoding/json"
)

// Indicator is one allow-listed attribute copied from a MISP object. Value
// is the attribute's JSON value, untouched.
type Indicator struct {
	Type  string
	Value json.RawMessage
}

// Record is the flat view of one MISP object. Nil raw fields encode as JSON
// null.
type Record struct {
	FileName   string
	Name       json.RawMessage
	Indicators []Indicator
	// FileType holds the value of the object's md5 attribute.
	FileType json.RawMessage
	TagName  []json.RawMessage
}

// Indicator returns the value stored for the attribute type t.
func (r *Record) Indicator(t string) (json.RawMessage, bool) {
	for _, ind := range r.Indicators {
		if ind.Type == t {
			return ind.Value, true
		}
	}
	return nil, false
}

// setIndicator keeps the position of the first occurrence of t and the value
// of the last one.
func (r *Record) setIndicator(t string, v json.RawMessage) {
	for i := range r.Indicators {
		if r.Indicators[i].Type == t {
			r.Indicators[i].Value = v
			return
		}
	}
	r.Indicators = append(r.Indicators, Indicator{Type: t, Value: v})
}

// MarshalJSON writes the keys in the order file_name, name, indicators in
// first seen order, file_type, tag_name. Values are written as found in the
// source document and nothing is HTML escaped.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	writeField(&buf, "file_name", encodeString(r.FileName))
	buf.WriteByte(',')
	writeField(&buf, "name", orNull(r.Name))
	for _, ind := range r.Indicators {
		buf.WriteByte(',')
		writeField(&buf, ind.Type, orNull(ind.Value))
	}
	buf.WriteByte(',')
	writeField(&buf, "file_type", orNull(r.FileType))
	buf.WriteByte(',')
	buf.Write(encodeString("tag_name"))
	buf.WriteByte(':')
	if len(r.TagName) == 0 {
		buf.WriteString("null")
	} else {
		buf.WriteByte('[')
		for i, t := range r.TagName {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.Write(orNull(t))
		}
		buf.WriteByte(']')
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeField(buf *bytes.Buffer, key string, value json.RawMessage) {
	buf.Write(encodeString(key))
	buf.WriteByte(':')
	buf.Write(value)
}

func orNull(v json.RawMessage) json.RawMessage {
	if len(v) == 0 {
		return json.RawMessage("null")
	}
	return v
}

func encodeString(s string) []byte {
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return bytes.TrimRight(b.Bytes(), "\n")
}
