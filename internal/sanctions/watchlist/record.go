package watchlist

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"sdnguard/internal/sanctions/models"
	pstrings "sdnguard/pkg/platform/strings"
)

const setSeparator = ";"

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// wireRecord is a record as the provider serializes it. Set-valued fields
// arrive as ";"-delimited strings, though JSON arrays are accepted too.
type wireRecord struct {
	ID          string       `json:"id"`
	Schema      string       `json:"schema"`
	Name        string       `json:"name"`
	Aliases     delimitedSet `json:"aliases"`
	BirthDate   string       `json:"birth_date"`
	Countries   delimitedSet `json:"countries"`
	Addresses   delimitedSet `json:"addresses"`
	Identifiers delimitedSet `json:"identifiers"`
	Sanctions   delimitedSet `json:"sanctions"`
	Phones      delimitedSet `json:"phones"`
	Emails      delimitedSet `json:"emails"`
	Dataset     string       `json:"dataset"`
	FirstSeen   string       `json:"first_seen"`
	LastSeen    string       `json:"last_seen"`
	LastChange  string       `json:"last_change"`
}

type delimitedSet []string

func (s *delimitedSet) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*s = nil
		return nil
	case len(data) > 0 && data[0] == '"':
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		*s = pstrings.SplitSet(raw, setSeparator)
		return nil
	case len(data) > 0 && data[0] == '[':
		var raw []string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		*s = pstrings.DedupeAndTrim(raw)
		return nil
	default:
		return fmt.Errorf("expected delimited string or list, got %s", data)
	}
}

func (s delimitedSet) values() []string {
	if s == nil {
		return []string{}
	}
	return []string(s)
}

// parseRecords converts a provider body into records. In strict mode any
// shape mismatch is a bad_data error. In lenient mode a non-array body
// yields no records, while every array element is kept with whatever fields
// it carries, so the record count always matches the provider's.
func parseRecords(body []byte, lenient bool) ([]models.WatchlistRecord, error) {
	if !gjson.ValidBytes(body) {
		if lenient {
			return []models.WatchlistRecord{}, nil
		}
		return nil, badData("invalid JSON")
	}
	root := gjson.ParseBytes(body)
	if !root.IsArray() {
		if lenient {
			return []models.WatchlistRecord{}, nil
		}
		kind := root.Type.String()
		if root.IsObject() {
			kind = "object"
		}
		return nil, badData("expected a JSON array of records, got %s", kind)
	}

	items := root.Array()
	records := make([]models.WatchlistRecord, 0, len(items))
	for i, item := range items {
		if lenient {
			records = append(records, buildRecord(lenientWireRecord(item)))
			continue
		}
		rec, err := parseRecord(item.Raw)
		if err != nil {
			return nil, badData("record %d: %v", i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseRecord(raw string) (models.WatchlistRecord, error) {
	var w wireRecord
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		return models.WatchlistRecord{}, err
	}
	if strings.TrimSpace(w.ID) == "" {
		return models.WatchlistRecord{}, fmt.Errorf("missing id")
	}
	if strings.TrimSpace(w.Name) == "" {
		return models.WatchlistRecord{}, fmt.Errorf("missing name")
	}
	for _, s := range w.timestamps() {
		if _, err := parseTimestamp(s.raw); err != nil {
			return models.WatchlistRecord{}, fmt.Errorf("%s: %w", s.field, err)
		}
	}
	return buildRecord(w), nil
}

// lenientWireRecord reads whatever fields item carries. Non-object elements
// and mistyped fields come back as zero values so the record still counts.
func lenientWireRecord(item gjson.Result) wireRecord {
	str := func(field string) string {
		v := item.Get(field)
		if v.Type == gjson.String || v.Type == gjson.Number {
			return v.String()
		}
		return ""
	}
	set := func(field string) delimitedSet {
		v := item.Get(field)
		switch {
		case v.Type == gjson.String:
			return pstrings.SplitSet(v.String(), setSeparator)
		case v.IsArray():
			var raw []string
			for _, e := range v.Array() {
				if e.Type == gjson.String {
					raw = append(raw, e.String())
				}
			}
			return pstrings.DedupeAndTrim(raw)
		}
		return nil
	}
	if !item.IsObject() {
		return wireRecord{}
	}
	return wireRecord{
		ID:          str("id"),
		Schema:      str("schema"),
		Name:        str("name"),
		Aliases:     set("aliases"),
		BirthDate:   str("birth_date"),
		Countries:   set("countries"),
		Addresses:   set("addresses"),
		Identifiers: set("identifiers"),
		Sanctions:   set("sanctions"),
		Phones:      set("phones"),
		Emails:      set("emails"),
		Dataset:     str("dataset"),
		FirstSeen:   str("first_seen"),
		LastSeen:    str("last_seen"),
		LastChange:  str("last_change"),
	}
}

type wireTimestamp struct {
	field string
	raw   string
}

func (w wireRecord) timestamps() []wireTimestamp {
	return []wireTimestamp{
		{"first_seen", w.FirstSeen},
		{"last_seen", w.LastSeen},
		{"last_change", w.LastChange},
	}
}

// buildRecord maps a wire record onto the model. Unparseable timestamps
// become nil; strict callers have already rejected them.
func buildRecord(w wireRecord) models.WatchlistRecord {
	rec := models.WatchlistRecord{
		ID:          strings.TrimSpace(w.ID),
		Schema:      w.Schema,
		EntityType:  models.EntityTypeForSchema(w.Schema),
		Name:        strings.TrimSpace(w.Name),
		Aliases:     w.Aliases.values(),
		BirthDate:   strings.TrimSpace(w.BirthDate),
		Countries:   w.Countries.values(),
		Addresses:   w.Addresses.values(),
		Identifiers: w.Identifiers.values(),
		Sanctions:   w.Sanctions.values(),
		Phones:      w.Phones.values(),
		Emails:      w.Emails.values(),
		Dataset:     w.Dataset,
	}
	dst := []**time.Time{&rec.FirstSeen, &rec.LastSeen, &rec.LastChange}
	for i, s := range w.timestamps() {
		ts, _ := parseTimestamp(s.raw)
		*dst[i] = ts
	}
	return rec
}

// parseTimestamp returns nil for an empty value.
func parseTimestamp(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unparseable timestamp %q", raw)
}
