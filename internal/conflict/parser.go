package conflict

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"

	"github.com/matsen/citenum/internal/reference"
	"github.com/matsen/citenum/internal/storage"
)

type parserState int

const (
	stateNormal parserState = iota
	stateInOurs
	stateInTheirs
)

// Conflict marker prefixes
const (
	oursMarker      = "<<<<<<<"
	separatorMarker = "======="
	theirsMarker    = ">>>>>>>"
)

// Parse reads a conflicted JSONL file into clean lines and conflict regions.
func Parse(r io.Reader) (*ParseResult, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), storage.MaxJSONLLineCapacity)
	result := &ParseResult{}

	state := stateNormal
	lineNum := 0
	var region Region
	var ours, theirs []string

	fail := func(msg, line string) (*ParseResult, error) {
		return nil, ParseError{Line: lineNum, Message: msg, Context: line}
	}

	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		isOurs := strings.HasPrefix(line, oursMarker)
		isSep := strings.HasPrefix(line, separatorMarker)
		isTheirs := strings.HasPrefix(line, theirsMarker)

		switch state {
		case stateNormal:
			switch {
			case isOurs:
				region = Region{StartLine: lineNum}
				ours, theirs = nil, nil
				state = stateInOurs
			case isSep:
				return fail("unexpected separator marker outside conflict region", line)
			case isTheirs:
				return fail("unexpected end marker outside conflict region", line)
			default:
				result.CleanLines = append(result.CleanLines, CleanLine{LineNum: lineNum, Content: line})
			}

		case stateInOurs:
			switch {
			case isOurs:
				return fail("nested conflict markers not allowed", line)
			case isSep:
				state = stateInTheirs
			case isTheirs:
				return fail("unexpected end marker before separator", line)
			default:
				ours = append(ours, line)
			}

		case stateInTheirs:
			switch {
			case isOurs:
				return fail("nested conflict markers not allowed", line)
			case isSep:
				return fail("duplicate separator marker in conflict region", line)
			case isTheirs:
				region.EndLine = lineNum
				region.OursRaw = strings.Join(ours, "\n")
				region.TheirsRaw = strings.Join(theirs, "\n")

				var err error
				if region.Ours, err = parseArticles(ours, region.StartLine+1); err != nil {
					return nil, err
				}
				if region.Theirs, err = parseArticles(theirs, region.StartLine+len(ours)+2); err != nil {
					return nil, err
				}
				result.Regions = append(result.Regions, region)
				state = stateNormal
			default:
				theirs = append(theirs, line)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if state != stateNormal {
		return fail("unterminated conflict region at end of file", "")
	}
	return result, nil
}

// ParseString parses conflicted content held in memory.
func ParseString(content string) (*ParseResult, error) {
	return Parse(strings.NewReader(content))
}

// HasConflicts reports whether any conflict region was found.
func (r *ParseResult) HasConflicts() bool {
	return len(r.Regions) > 0
}

// CleanArticles decodes the clean lines strictly between two line numbers.
// Blank and undecodable lines are skipped.
func (r *ParseResult) CleanArticles(after, before int) []reference.Reference {
	var out []reference.Reference
	for _, cl := range r.CleanLines {
		if cl.LineNum <= after || cl.LineNum >= before {
			continue
		}
		content := strings.TrimSpace(cl.Content)
		if content == "" {
			continue
		}
		var ref reference.Reference
		if err := json.Unmarshal([]byte(content), &ref); err == nil {
			out = append(out, ref)
		}
	}
	return out
}

// Articles reassembles the file in order, replacing region i with resolved[i].
func (r *ParseResult) Articles(resolved [][]reference.Reference) []reference.Reference {
	var out []reference.Reference
	prev := 0
	for i, region := range r.Regions {
		out = append(out, r.CleanArticles(prev, region.StartLine)...)
		if i < len(resolved) {
			out = append(out, resolved[i]...)
		}
		prev = region.EndLine
	}
	return append(out, r.CleanArticles(prev, int(^uint(0)>>1))...)
}

func parseArticles(lines []string, startLine int) ([]reference.Reference, error) {
	var refs []reference.Reference
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var ref reference.Reference
		if err := json.Unmarshal([]byte(line), &ref); err != nil {
			return nil, ParseError{
				Line:    startLine + i,
				Message: "invalid JSON: " + err.Error(),
				Context: truncate(line, 50),
			}
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
