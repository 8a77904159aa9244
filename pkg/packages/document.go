package packages

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNotObject is returned when a write needs a JSON object but the document is something else
var ErrNotObject = errors.New("package document is not a JSON object")

// ValueKind classifies an env value
type ValueKind int

const (
	KindString ValueKind = iota
	KindNumber
	KindOther
)

// EnvValue is one key/value pair inside an env entry.
// Text holds the string value, or the canonical decimal form of a number.
// It is empty for KindOther.
type EnvValue struct {
	Key  string
	Kind ValueKind
	Text string
}

// EnvEntry is one object of the env array, in document order
type EnvEntry []EnvValue

// Field is a top-level member of the document, kept verbatim for write-back
type Field struct {
	Key   string
	Value json.RawMessage
}

// Document is a parsed package file.
// Enable and Env are typed views; every top-level field, known or not,
// stays in Fields in its original order so the file can be rewritten.
type Document struct {
	Enable *bool
	Env    []EnvEntry

	raw      json.RawMessage
	fields   []Field
	isObject bool
}

// ParseDocument parses a package file. Any valid JSON value is accepted;
// only invalid JSON is an error.
func ParseDocument(data []byte) (*Document, error) {
	var probe any
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, err
	}

	doc := &Document{raw: append(json.RawMessage(nil), bytes.TrimSpace(data)...)}
	if !isJSONObject(doc.raw) {
		return doc, nil
	}

	fields, err := orderedFields(doc.raw)
	if err != nil {
		return nil, err
	}
	doc.fields = fields
	doc.isObject = true

	if raw, ok := doc.Get("enable"); ok {
		var b bool
		if err := json.Unmarshal(raw, &b); err == nil {
			doc.Enable = &b
		}
	}
	if raw, ok := doc.Get("env"); ok {
		doc.Env = parseEnv(raw)
	}
	return doc, nil
}

// IsObject reports whether the document's top level is a JSON object
func (d *Document) IsObject() bool {
	return d.isObject
}

// Fields returns the top-level members in document order
func (d *Document) Fields() []Field {
	return d.fields
}

// Get returns the raw value of a top-level member
func (d *Document) Get(key string) (json.RawMessage, bool) {
	for _, f := range d.fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Enabled reports the enable flag, defaulting to true when absent or not a boolean
func (d *Document) Enabled() bool {
	if d == nil || d.Enable == nil {
		return true
	}
	return *d.Enable
}

// SetEnable sets the enable member, appending it when missing
func (d *Document) SetEnable(enabled bool) error {
	if !d.isObject {
		return ErrNotObject
	}
	value := json.RawMessage(strconv.FormatBool(enabled))
	replaced := false
	for i := range d.fields {
		if d.fields[i].Key == "enable" {
			d.fields[i].Value = value
			replaced = true
		}
	}
	if !replaced {
		d.fields = append(d.fields, Field{Key: "enable", Value: value})
	}
	d.Enable = &enabled
	return nil
}

// MarshalIndent renders the document with two-space indentation
func (d *Document) MarshalIndent() ([]byte, error) {
	var compact bytes.Buffer
	if d.isObject {
		compact.WriteByte('{')
		for i, f := range d.fields {
			if i > 0 {
				compact.WriteByte(',')
			}
			key, err := marshalString(f.Key)
			if err != nil {
				return nil, err
			}
			compact.Write(key)
			compact.WriteByte(':')
			compact.Write(f.Value)
		}
		compact.WriteByte('}')
	} else {
		compact.Write(d.raw)
	}

	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", "  "); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func isJSONObject(raw json.RawMessage) bool {
	return len(raw) > 0 && raw[0] == '{'
}

// orderedFields decodes a JSON object into its members, preserving order.
// A repeated key keeps its first position and its last value.
func orderedFields(raw json.RawMessage) ([]Field, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	var fields []Field
	index := make(map[string]int)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected object key %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		if i, seen := index[key]; seen {
			fields[i].Value = value
			continue
		}
		index[key] = len(fields)
		fields = append(fields, Field{Key: key, Value: value})
	}
	return fields, nil
}

func parseEnv(raw json.RawMessage) []EnvEntry {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}

	entries := make([]EnvEntry, 0, len(items))
	for _, item := range items {
		item = bytes.TrimSpace(item)
		if !isJSONObject(item) {
			continue
		}
		fields, err := orderedFields(item)
		if err != nil {
			continue
		}
		entry := make(EnvEntry, 0, len(fields))
		for _, f := range fields {
			entry = append(entry, classifyValue(f.Key, f.Value))
		}
		entries = append(entries, entry)
	}
	return entries
}

func classifyValue(key string, raw json.RawMessage) EnvValue {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return EnvValue{Key: key, Kind: KindOther}
	}
	switch c := raw[0]; {
	case c == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return EnvValue{Key: key, Kind: KindString, Text: s}
		}
	case c == '-' || (c >= '0' && c <= '9'):
		return EnvValue{Key: key, Kind: KindNumber, Text: canonicalNumber(json.Number(raw))}
	}
	return EnvValue{Key: key, Kind: KindOther}
}

// canonicalNumber renders integers without a fraction and other numbers as
// the shortest decimal that round-trips, always with a fractional part.
func canonicalNumber(n json.Number) string {
	s := string(n)
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return strconv.FormatInt(i, 10)
	}
	if u, err := strconv.ParseUint(s, 10, 64); err == nil {
		return strconv.FormatUint(u, 10)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return s
	}
	out := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(out, ".") {
		out += ".0"
	}
	return out
}

func marshalString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
