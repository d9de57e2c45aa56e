// Package storage handles data persistence in JSONL and SQLite formats.
package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matsen/citenum/internal/identity"
	"github.com/matsen/citenum/internal/reference"
)

// MaxJSONLLineCapacity is the maximum buffer size for reading JSONL lines (1MB per line).
// This constant is shared across all JSONL file readers.
const MaxJSONLLineCapacity = 1024 * 1024

// readJSONL decodes one value per non-empty line. A missing file yields nil.
// check, when non-nil, runs on every decoded value and aborts the read on error.
func readJSONL[T any](path, what string, check func(*T) error) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening %s file: %w", what, err)
	}
	defer f.Close()
	return decodeJSONL(f, what, check)
}

func decodeJSONL[T any](r io.Reader, what string, check func(*T) error) ([]T, error) {
	var out []T
	scanner := bufio.NewScanner(r)
	buf := make([]byte, MaxJSONLLineCapacity)
	scanner.Buffer(buf, MaxJSONLLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var v T
		if err := json.Unmarshal(line, &v); err != nil {
			return nil, fmt.Errorf("parsing line %d: %w", lineNum, err)
		}
		if check != nil {
			if err := check(&v); err != nil {
				return nil, fmt.Errorf("invalid %s at line %d: %w", what, lineNum, err)
			}
		}
		out = append(out, v)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", what, err)
	}
	return out, nil
}

// writeJSONLine marshals v and writes it followed by a newline.
func writeJSONLine(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing: %w", err)
	}
	return nil
}

// writeJSONL replaces path with one line per value. The file is written to a
// temporary sibling and renamed so readers never see a half-written file.
func writeJSONL[T any](path, what string, values []T) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating %s file: %w", what, err)
	}

	w := bufio.NewWriter(f)
	for i, v := range values {
		if err := writeJSONLine(w, v); err != nil {
			f.Close()
			os.Remove(tmp)
			return fmt.Errorf("%s %d: %w", what, i, err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("flushing %s file: %w", what, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing %s file: %w", what, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing %s file: %w", what, err)
	}
	return nil
}

// appendJSONL adds one value to the end of path.
func appendJSONL(path, what string, v any) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening %s file for append: %w", what, err)
	}
	defer f.Close()

	if err := writeJSONLine(f, v); err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	return nil
}

// ReadAll reads all article records from a JSONL file.
func ReadAll(path string) ([]reference.Reference, error) {
	return readJSONL[reference.Reference](path, "articles", nil)
}

// DecodeArticles reads article records from JSONL content, such as a file
// read out of git history.
func DecodeArticles(r io.Reader) ([]reference.Reference, error) {
	return decodeJSONL[reference.Reference](r, "articles", nil)
}

// Append adds an article record to the end of a JSONL file.
func Append(path string, ref reference.Reference) error {
	return appendJSONL(path, "articles", ref)
}

// WriteAll writes all article records to a JSONL file, replacing existing content.
func WriteAll(path string, refs []reference.Reference) error {
	return writeJSONL(path, "articles", refs)
}

// FindByDOI searches for a reference by DOI. Both sides are normalized.
func FindByDOI(refs []reference.Reference, doi string) (int, bool) {
	doi = identity.NormalizeDOI(doi)
	if doi == "" {
		return -1, false
	}
	for i, ref := range refs {
		if identity.NormalizeDOI(ref.DOI) == doi {
			return i, true
		}
	}
	return -1, false
}

// FindByID searches for a reference by ID.
func FindByID(refs []reference.Reference, id string) (int, bool) {
	for i, ref := range refs {
		if ref.ID == id {
			return i, true
		}
	}
	return -1, false
}

// FindByKey returns the first reference whose dedupe key equals key.
// Anonymous keys never match.
func FindByKey(refs []reference.Reference, key string, opts identity.Options) (int, bool) {
	if identity.IsAnonymous(key) {
		return -1, false
	}
	for i, ref := range refs {
		if ref.Key(opts) == key {
			return i, true
		}
	}
	return -1, false
}

// FindBySourceID searches for a reference by import source type and ID.
func FindBySourceID(refs []reference.Reference, sourceType, sourceID string) (int, bool) {
	if sourceID == "" {
		return -1, false
	}
	for i, ref := range refs {
		if ref.Source.Type == sourceType && ref.Source.ID == sourceID {
			return i, true
		}
	}
	return -1, false
}

// GenerateUniqueID returns an ID that doesn't conflict with existing references.
// If the base ID exists, appends -2, -3, etc.
func GenerateUniqueID(refs []reference.Reference, baseID string) string {
	taken := make(map[string]bool, len(refs))
	for _, ref := range refs {
		taken[ref.ID] = true
	}
	if !taken[baseID] {
		return baseID
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s-%d", baseID, i)
		if !taken[candidate] {
			return candidate
		}
	}
}
