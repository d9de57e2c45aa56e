package export

import (
	"strings"
	"testing"

	"github.com/matsen/citenum/internal/reference"
)

func TestToBibTeX(t *testing.T) {
	tests := []struct {
		name string
		ref  reference.Reference
		want string
	}{
		{
			name: "journal article",
			ref: reference.Reference{
				ID:        "Bloom2020",
				DOI:       "10.1093/ve/veaa001",
				Title:     "Deep mutational scanning",
				Authors:   []reference.Author{{First: "Jesse D", Last: "Bloom"}, {First: "Tyler", Last: "Starr"}},
				Venue:     "Virus Evolution",
				Published: reference.PublicationDate{Year: 2020, Month: 3},
			},
			want: `@article{Bloom2020,
  author = {Bloom, Jesse D and Starr, Tyler},
  title = {Deep mutational scanning},
  journal = {Virus Evolution},
  year = {2020},
  month = {3},
  doi = {10.1093/ve/veaa001},
}
`,
		},
		{
			name: "pubmed record",
			ref: reference.Reference{
				ID:        "Lee2019",
				PMID:      "31000001",
				Title:     "Antibody escape maps",
				Authors:   []reference.Author{{Last: "Lee"}},
				Published: reference.PublicationDate{Year: 2019},
			},
			want: `@article{Lee2019,
  author = {Lee},
  title = {Antibody escape maps},
  year = {2019},
  pmid = {31000001},
}
`,
		},
		{
			name: "no year",
			ref: reference.Reference{
				ID:    "anon",
				Title: "Untitled preprint",
				Venue: "bioRxiv",
			},
			want: `@article{anon,
  title = {Untitled preprint},
  journal = {bioRxiv},
}
`,
		},
		{
			name: "conference paper",
			ref: reference.Reference{
				ID:        "Kim2021",
				Title:     "Graph networks",
				Venue:     "Proceedings of ICML",
				Published: reference.PublicationDate{Year: 2021},
			},
			want: `@inproceedings{Kim2021,
  title = {Graph networks},
  booktitle = {Proceedings of ICML},
  year = {2021},
}
`,
		},
		{
			name: "merged aliases",
			ref: reference.Reference{
				ID:         "Smith2020",
				Title:      "Alpha",
				DOI:        "10.1/a",
				MergedFrom: []string{"Smith2020-2", "smith_alpha"},
				Published:  reference.PublicationDate{Year: 2020},
			},
			want: `@article{Smith2020,
  title = {Alpha},
  year = {2020},
  doi = {10.1/a},
  ids = {Smith2020-2, smith_alpha},
}
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToBibTeX(tt.ref); got != tt.want {
				t.Errorf("ToBibTeX() =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

func TestToBibTeX_YearZeroOmitted(t *testing.T) {
	got := ToBibTeX(reference.Reference{ID: "x", Title: "T", PMID: "7"})

	if strings.Contains(got, "year") {
		t.Errorf("ToBibTeX() wrote a year for an undated record:\n%s", got)
	}
	if !strings.Contains(got, "  pmid = {7},\n") {
		t.Errorf("ToBibTeX() missing pmid:\n%s", got)
	}
}

func TestToBibTeX_EscapesLatex(t *testing.T) {
	ref := reference.Reference{
		ID:       "x",
		Title:    `50% of $costs & the_best #1 {set} ~ ^ \`,
		Authors:  []reference.Author{{Last: "Smith & Wesson"}},
		Abstract: "R&D",
	}

	got := ToBibTeX(ref)

	for _, want := range []string{
		`title = {50\% of \$costs \& the\_best \#1 \{set\} \textasciitilde{} \textasciicircum{} \textbackslash{}},`,
		`author = {Smith \& Wesson},`,
		`abstract = {R\&D},`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("ToBibTeX() missing %q:\n%s", want, got)
		}
	}
}

func TestEntryType(t *testing.T) {
	tests := []struct {
		venue string
		want  string
	}{
		{"Nature", "article"},
		{"arXiv", "article"},
		{"Proceedings of the National Academy", "inproceedings"},
		{"International Conference on Learning Representations", "inproceedings"},
		{"NeurIPS Workshop on Biology", "inproceedings"},
		{"Pacific Symposium on Biocomputing", "inproceedings"},
		{"", "article"},
	}

	for _, tt := range tests {
		t.Run(tt.venue, func(t *testing.T) {
			if got := entryType(tt.venue); got != tt.want {
				t.Errorf("entryType(%q) = %q, want %q", tt.venue, got, tt.want)
			}
		})
	}
}

func TestToBibTeXList(t *testing.T) {
	refs := []reference.Reference{
		{ID: "A", Title: "First"},
		{ID: "B", Title: "Second"},
	}

	got := ToBibTeXList(refs)

	if !strings.HasPrefix(got, "@article{A,") {
		t.Errorf("ToBibTeXList() does not start with A:\n%s", got)
	}
	if !strings.Contains(got, "}\n\n@article{B,") {
		t.Errorf("ToBibTeXList() entries not separated by a blank line:\n%s", got)
	}
	if ToBibTeXList(nil) != "" {
		t.Error("ToBibTeXList(nil) should be empty")
	}
}
