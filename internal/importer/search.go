package importer

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/matsen/citenum/internal/identity"
)

// identityFields has ArticleIdentity's fields so searchRecord can shadow PMID.
type identityFields identity.ArticleIdentity

// searchRecord accepts a numeric PMID, which several providers emit.
type searchRecord struct {
	*identityFields
	PMID FlexibleString `json:"pmid"`
}

// searchEnvelope is the wrapped form some providers return.
type searchEnvelope struct {
	Results []json.RawMessage `json:"results"`
	Items   []json.RawMessage `json:"items"`
}

// ParseSearchResults reads search-provider output: a JSON array of
// records, an object wrapping one under "results" or "items", or one
// record per line. Each record decodes into an ArticleIdentity; the raw
// record is kept as its Payload. Source, when set, overrides the record's
// own source tag.
func ParseSearchResults(data []byte, source string) ([]identity.ArticleIdentity, error) {
	raws, err := splitRecords(bytes.TrimSpace(data))
	if err != nil {
		return nil, err
	}

	items := make([]identity.ArticleIdentity, 0, len(raws))
	for i, raw := range raws {
		var item identity.ArticleIdentity
		rec := searchRecord{identityFields: (*identityFields)(&item)}
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}
		item.PMID = rec.PMID.String()
		item.Payload = append(json.RawMessage(nil), raw...)
		if source != "" {
			item.Source = source
		}
		items = append(items, item)
	}
	return items, nil
}

func splitRecords(data []byte) ([]json.RawMessage, error) {
	if len(data) == 0 {
		return nil, nil
	}

	switch data[0] {
	case '[':
		var raws []json.RawMessage
		if err := json.Unmarshal(data, &raws); err != nil {
			return nil, fmt.Errorf("parsing search results: %w", err)
		}
		return raws, nil
	case '{':
		var env searchEnvelope
		if err := json.Unmarshal(data, &env); err == nil && (env.Results != nil || env.Items != nil) {
			return append(env.Results, env.Items...), nil
		}
	}

	// One record per line.
	var raws []json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(data))
	for dec.More() {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("parsing search results record %d: %w", len(raws)+1, err)
		}
		raws = append(raws, raw)
	}
	return raws, nil
}
