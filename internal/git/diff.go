package git

import (
	"reflect"
	"sort"

	"github.com/matsen/citenum/internal/reference"
	"github.com/matsen/citenum/internal/storage"
)

// Diff is the change to a library's articles between two states.
type Diff struct {
	Since   string                `json:"since"`
	Added   []reference.Reference `json:"added"`
	Removed []reference.Reference `json:"removed"`
	Changed []string              `json:"changed"` // IDs whose record differs
}

// DiffSince compares the working-tree articles file at path with the same
// file at commitRef.
func DiffSince(path, commitRef string) (*Diff, error) {
	old, err := ArticlesAtCommit(path, commitRef)
	if err != nil {
		return nil, err
	}
	current, err := storage.ReadAll(path)
	if err != nil {
		return nil, err
	}
	d := diffArticles(old, current)
	d.Since = commitRef
	return d, nil
}

// diffArticles matches records by ID. Output is sorted by ID.
func diffArticles(old, current []reference.Reference) *Diff {
	oldByID := make(map[string]reference.Reference, len(old))
	for _, ref := range old {
		oldByID[ref.ID] = ref
	}
	currentIDs := make(map[string]bool, len(current))

	d := &Diff{
		Added:   []reference.Reference{},
		Removed: []reference.Reference{},
		Changed: []string{},
	}
	for _, ref := range current {
		currentIDs[ref.ID] = true
		prev, ok := oldByID[ref.ID]
		switch {
		case !ok:
			d.Added = append(d.Added, ref)
		case !reflect.DeepEqual(prev, ref):
			d.Changed = append(d.Changed, ref.ID)
		}
	}
	for _, ref := range old {
		if !currentIDs[ref.ID] {
			d.Removed = append(d.Removed, ref)
		}
	}

	sortByID(d.Added)
	sortByID(d.Removed)
	sort.Strings(d.Changed)
	return d
}

func sortByID(refs []reference.Reference) {
	sort.Slice(refs, func(i, j int) bool { return refs[i].ID < refs[j].ID })
}
