package conflict

import (
	"errors"
	"strings"
	"testing"

	"github.com/matsen/citenum/internal/reference"
)

const cleanFile = `{"id":"Chen2020","doi":"10.1234/a","title":"Article One","authors":[],"published":{"year":2020},"source":{"type":"manual","id":""}}
{"id":"Patel2021","doi":"10.1234/b","title":"Article Two","authors":[],"published":{"year":2021},"source":{"type":"manual","id":""}}
{"id":"Kim2022","pmid":"333","title":"Article Three","authors":[],"published":{"year":2022},"source":{"type":"pubmed","id":"333"}}
`

const simpleConflict = `{"id":"Chen2020","doi":"10.1234/a","title":"Article One","authors":[],"published":{"year":2020},"source":{"type":"manual","id":""}}
<<<<<<< HEAD
{"id":"Patel2021","doi":"10.1234/b","title":"Article Two","abstract":"Full abstract.","authors":[{"first":"Priya","last":"Patel"}],"published":{"year":2021},"source":{"type":"manual","id":""}}
=======
{"id":"Patel2021","doi":"10.1234/b","title":"Article Two","authors":[],"published":{"year":2021},"source":{"type":"manual","id":""}}
>>>>>>> feature
{"id":"Kim2022","pmid":"333","title":"Article Three","authors":[],"published":{"year":2022},"source":{"type":"pubmed","id":"333"}}
`

func TestParse_NoConflicts(t *testing.T) {
	result, err := ParseString(cleanFile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.HasConflicts() {
		t.Errorf("expected no conflicts, got %d", len(result.Regions))
	}
	if len(result.CleanLines) != 3 {
		t.Errorf("expected 3 clean lines, got %d", len(result.CleanLines))
	}
}

func TestParse_SimpleConflict(t *testing.T) {
	result, err := ParseString(simpleConflict)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Regions) != 1 {
		t.Fatalf("expected 1 region, got %d", len(result.Regions))
	}

	region := result.Regions[0]
	if region.StartLine != 2 || region.EndLine != 6 {
		t.Errorf("region lines = %d-%d, want 2-6", region.StartLine, region.EndLine)
	}
	if len(region.Ours) != 1 || len(region.Theirs) != 1 {
		t.Fatalf("expected 1 article per side, got %d/%d", len(region.Ours), len(region.Theirs))
	}
	if region.Ours[0].Abstract == "" {
		t.Error("expected ours to have abstract")
	}
	if region.Theirs[0].Abstract != "" {
		t.Errorf("expected theirs to have no abstract, got %q", region.Theirs[0].Abstract)
	}
	if len(result.CleanLines) != 2 {
		t.Errorf("expected 2 clean lines, got %d", len(result.CleanLines))
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		line    int
		message string
	}{
		{
			name:    "unterminated",
			content: "<<<<<<< HEAD\n{\"id\":\"a\"}\n=======\n",
			line:    3,
			message: "unterminated",
		},
		{
			name:    "separator outside region",
			content: "{\"id\":\"a\"}\n=======\n",
			line:    2,
			message: "unexpected separator",
		},
		{
			name:    "end marker outside region",
			content: ">>>>>>> branch\n",
			line:    1,
			message: "unexpected end marker",
		},
		{
			name:    "nested",
			content: "<<<<<<< HEAD\n<<<<<<< other\n",
			line:    2,
			message: "nested",
		},
		{
			name:    "end before separator",
			content: "<<<<<<< HEAD\n>>>>>>> branch\n",
			line:    2,
			message: "before separator",
		},
		{
			name:    "invalid JSON",
			content: "<<<<<<< HEAD\n{\"id\":\"a\"}\n=======\nnot json\n>>>>>>> branch\n",
			line:    4,
			message: "invalid JSON",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseString(tt.content)
			if err == nil {
				t.Fatal("expected error")
			}
			var pe ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected ParseError, got %T", err)
			}
			if pe.Line != tt.line {
				t.Errorf("line = %d, want %d", pe.Line, tt.line)
			}
			if !strings.Contains(pe.Message, tt.message) {
				t.Errorf("message %q does not contain %q", pe.Message, tt.message)
			}
		})
	}
}

func TestParseResult_Articles(t *testing.T) {
	result, err := ParseString(simpleConflict)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	refs := result.Articles(nil)
	if len(refs) != 2 {
		t.Fatalf("expected 2 clean articles with no resolution, got %d", len(refs))
	}

	refs = result.Articles([][]reference.Reference{result.Regions[0].Ours})
	var ids []string
	for _, r := range refs {
		ids = append(ids, r.ID)
	}
	if got := strings.Join(ids, ","); got != "Chen2020,Patel2021,Kim2022" {
		t.Errorf("article order = %s, want Chen2020,Patel2021,Kim2022", got)
	}
}
