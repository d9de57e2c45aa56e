package conflict

import (
	"strings"

	"github.com/matsen/citenum/internal/reference"
)

// Field completeness weights (higher = more important)
const (
	weightAbstract  = 5
	weightAuthors   = 4
	weightVenue     = 3
	weightPublished = 2
	weightPMID      = 2
	weightDOI       = 1
)

// Resolve decides how a matched article pair is resolved.
func Resolve(match Match) Plan {
	plan := Plan{
		ArticleID: match.Ours.ID,
		Key:       match.Key,
	}

	if _, conflicts := MergeReferences(match.Ours, match.Theirs); len(conflicts) > 0 {
		plan.Action = ActionConflict
		plan.Conflicts = conflicts
		plan.Reason = "true conflicts on: " + conflictFieldNames(conflicts)
		return plan
	}

	if isComplementary(match.Ours, match.Theirs) {
		plan.Action = ActionMerge
		plan.Reason = "complementary metadata merged"
		return plan
	}

	oursScore := ComputeCompleteness(match.Ours)
	theirsScore := ComputeCompleteness(match.Theirs)

	// Tied scores: the longer author list is more complete
	if oursScore == theirsScore {
		oursAuthors, theirsAuthors := len(match.Ours.Authors), len(match.Theirs.Authors)
		if theirsAuthors > oursAuthors {
			plan.Action = ActionKeepTheirs
			plan.Reason = "theirs has more authors"
			return plan
		} else if oursAuthors > theirsAuthors {
			plan.Action = ActionKeepOurs
			plan.Reason = "ours has more authors"
			return plan
		}
	}

	switch {
	case oursScore > theirsScore:
		plan.Action = ActionKeepOurs
		plan.Reason = "ours is more complete"
	case oursScore < theirsScore:
		plan.Action = ActionKeepTheirs
		plan.Reason = "theirs is more complete"
	default:
		plan.Action = ActionKeepOurs
		plan.Reason = "identical content, keeping ours"
	}
	return plan
}

// isComplementary reports whether each side has fields the other lacks.
func isComplementary(ours, theirs reference.Reference) bool {
	oursHasExtra, theirsHasExtra := false, false
	extra := func(a, b bool) {
		if a && !b {
			oursHasExtra = true
		}
		if b && !a {
			theirsHasExtra = true
		}
	}

	extra(ours.PMID != "", theirs.PMID != "")
	extra(ours.DOI != "", theirs.DOI != "")
	extra(ours.Abstract != "", theirs.Abstract != "")
	extra(ours.Venue != "", theirs.Venue != "")
	extra(ours.PDFPath != "", theirs.PDFPath != "")
	extra(len(ours.Authors) > 0, len(theirs.Authors) > 0)

	oursDate, theirsDate := dateSpecificity(ours.Published), dateSpecificity(theirs.Published)
	if oursDate > theirsDate {
		oursHasExtra = true
	}
	if theirsDate > oursDate {
		theirsHasExtra = true
	}

	return oursHasExtra && theirsHasExtra
}

// MergeReferences merges two versions of an article. The result keeps ours'
// ID; if theirs used a different ID it is recorded in MergedFrom so
// citations of it can be redirected.
func MergeReferences(ours, theirs reference.Reference) (reference.Reference, []FieldConflict) {
	merged := reference.Reference{ID: ours.ID}
	var conflicts []FieldConflict

	mergeField := func(fieldName, oursVal, theirsVal string, target *string) {
		val, conflict := mergeString(fieldName, oursVal, theirsVal)
		*target = val
		if conflict != nil {
			conflicts = append(conflicts, *conflict)
		}
	}

	mergeField("pmid", ours.PMID, theirs.PMID, &merged.PMID)
	mergeField("doi", ours.DOI, theirs.DOI, &merged.DOI)
	mergeField("title", ours.Title, theirs.Title, &merged.Title)
	mergeField("abstract", ours.Abstract, theirs.Abstract, &merged.Abstract)
	mergeField("venue", ours.Venue, theirs.Venue, &merged.Venue)
	mergeField("pdf_path", ours.PDFPath, theirs.PDFPath, &merged.PDFPath)

	authors, authorsConflict := mergeAuthors(ours.Authors, theirs.Authors)
	merged.Authors = authors
	if authorsConflict != nil {
		conflicts = append(conflicts, *authorsConflict)
	}

	merged.Published = mergePublicationDate(ours.Published, theirs.Published)
	merged.Source = ours.Source
	merged.MergedFrom = mergedFrom(ours, theirs)

	return merged, conflicts
}

// mergedFrom unions both alias lists and adds theirs' ID when it differs.
func mergedFrom(ours, theirs reference.Reference) []string {
	aliases := unionStrings(ours.MergedFrom, theirs.MergedFrom)
	if theirs.ID != "" && theirs.ID != ours.ID {
		aliases = unionStrings(aliases, []string{theirs.ID})
	}
	return aliases
}

func mergeString(fieldName, ours, theirs string) (string, *FieldConflict) {
	if ours == "" {
		return theirs, nil
	}
	if theirs == "" || ours == theirs {
		return ours, nil
	}
	return "", &FieldConflict{
		Field:  fieldName,
		Ours:   truncate(ours, 50),
		Theirs: truncate(theirs, 50),
	}
}

// mergeAuthors returns the longer list, or a conflict if both have the same
// length with different names.
func mergeAuthors(ours, theirs []reference.Author) ([]reference.Author, *FieldConflict) {
	if len(ours) == 0 {
		return theirs, nil
	}
	if len(theirs) == 0 {
		return ours, nil
	}
	if len(ours) > len(theirs) {
		return ours, nil
	}
	if len(theirs) > len(ours) {
		return theirs, nil
	}

	if authorsEqual(ours, theirs) {
		return mergeAuthorORCIDs(ours, theirs), nil
	}

	return nil, &FieldConflict{
		Field:  "authors",
		Ours:   formatAuthorsShort(ours),
		Theirs: formatAuthorsShort(theirs),
	}
}

// authorsEqual compares names case-insensitively.
func authorsEqual(a, b []reference.Author) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !strings.EqualFold(a[i].First, b[i].First) ||
			!strings.EqualFold(a[i].Last, b[i].Last) {
			return false
		}
	}
	return true
}

func mergeAuthorORCIDs(ours, theirs []reference.Author) []reference.Author {
	merged := make([]reference.Author, len(ours))
	for i := range ours {
		merged[i] = ours[i]
		if merged[i].ORCID == "" && theirs[i].ORCID != "" {
			merged[i].ORCID = theirs[i].ORCID
		}
	}
	return merged
}

func formatAuthorsShort(authors []reference.Author) string {
	names := make([]string, 0, len(authors))
	for _, a := range authors {
		names = append(names, a.Last)
	}
	return truncate(strings.Join(names, ", "), 50)
}

func mergePublicationDate(ours, theirs reference.PublicationDate) reference.PublicationDate {
	if dateSpecificity(theirs) > dateSpecificity(ours) {
		return theirs
	}
	return ours
}

func dateSpecificity(d reference.PublicationDate) int {
	score := 0
	if d.Year != 0 {
		score++
	}
	if d.Month != 0 {
		score++
	}
	if d.Day != 0 {
		score++
	}
	return score
}

// unionStrings returns the union of two string slices, preserving order.
func unionStrings(a, b []string) []string {
	seen := make(map[string]bool)
	var result []string
	for _, s := range append(append([]string(nil), a...), b...) {
		if !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	return result
}

func conflictFieldNames(conflicts []FieldConflict) string {
	names := make([]string, 0, len(conflicts))
	for _, c := range conflicts {
		names = append(names, c.Field)
	}
	return strings.Join(names, ", ")
}

// ComputeCompleteness scores how much metadata a record carries.
func ComputeCompleteness(ref reference.Reference) int {
	score := 0
	if ref.Abstract != "" {
		score += weightAbstract
	}
	if len(ref.Authors) > 0 {
		score += weightAuthors
	}
	if ref.Venue != "" {
		score += weightVenue
	}
	if ref.Published.Year != 0 {
		score += weightPublished
	}
	if ref.PMID != "" {
		score += weightPMID
	}
	if ref.DOI != "" {
		score += weightDOI
	}
	return score
}

// Apply produces the resolved record for a plan. Conflicts default to ours
// until a choice is supplied with ApplyChoices.
func Apply(match Match, plan Plan) reference.Reference {
	var out reference.Reference
	switch plan.Action {
	case ActionKeepTheirs:
		out = match.Theirs
		out.MergedFrom = mergedFrom(match.Theirs, match.Ours)
	case ActionMerge:
		out, _ = MergeReferences(match.Ours, match.Theirs)
	default:
		out = match.Ours
		out.MergedFrom = mergedFrom(match.Ours, match.Theirs)
	}
	return out
}

// ApplyChoices merges a conflicting pair, taking each conflicting field from
// the side named in choices ("ours" or "theirs"). Fields without a choice
// come from ours.
func ApplyChoices(match Match, choices map[string]string) reference.Reference {
	merged, conflicts := MergeReferences(match.Ours, match.Theirs)
	for _, c := range conflicts {
		src := match.Ours
		if choices[c.Field] == "theirs" {
			src = match.Theirs
		}
		switch c.Field {
		case "pmid":
			merged.PMID = src.PMID
		case "doi":
			merged.DOI = src.DOI
		case "title":
			merged.Title = src.Title
		case "abstract":
			merged.Abstract = src.Abstract
		case "venue":
			merged.Venue = src.Venue
		case "pdf_path":
			merged.PDFPath = src.PDFPath
		case "authors":
			merged.Authors = src.Authors
		}
	}
	return merged
}

// ResolveRegion resolves every article of a matched region. Conflicting pairs are
// passed to choose, which returns per-field choices; with a nil choose they
// are left unresolved and reported in the returned plans.
func ResolveRegion(match MatchResult, choose func(Match, Plan) map[string]string) ([]reference.Reference, []Plan, bool) {
	var out []reference.Reference
	var plans []Plan
	resolved := true

	for _, ref := range match.OursOnly {
		out = append(out, ref)
		plans = append(plans, Plan{ArticleID: ref.ID, Action: ActionAddOurs, Reason: "only in ours"})
	}
	for _, m := range match.Matches {
		plan := Resolve(m)
		plans = append(plans, plan)
		if plan.Action != ActionConflict {
			out = append(out, Apply(m, plan))
			continue
		}
		if choose == nil {
			resolved = false
			continue
		}
		out = append(out, ApplyChoices(m, choose(m, plan)))
	}
	for _, ref := range match.TheirsOnly {
		out = append(out, ref)
		plans = append(plans, Plan{ArticleID: ref.ID, Action: ActionAddTheirs, Reason: "only in theirs"})
	}

	return out, plans, resolved
}
