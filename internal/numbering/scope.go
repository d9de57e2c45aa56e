package numbering

// DocumentCitations is the ordered citation list of one document.
type DocumentCitations struct {
	DocumentID string
	Citations  []Citation
}

// Flatten concatenates documents in project order into one scope. Each
// citation's DocumentID is set to the document it came from.
func Flatten(docs []DocumentCitations) []Citation {
	var out []Citation
	for _, d := range docs {
		for _, c := range d.Citations {
			c.DocumentID = d.DocumentID
			out = append(out, c)
		}
	}
	return out
}

// Split is the inverse of Flatten: it regroups a scope by DocumentID,
// keeping documents in the order given by order and citations in scope
// order. Documents with no citations come back with an empty list.
func Split(cs []Citation, order []string) []DocumentCitations {
	byDoc := make(map[string][]Citation, len(order))
	for _, c := range cs {
		byDoc[c.DocumentID] = append(byDoc[c.DocumentID], c)
	}

	out := make([]DocumentCitations, 0, len(order))
	for _, id := range order {
		cites := byDoc[id]
		if cites == nil {
			cites = []Citation{}
		}
		out = append(out, DocumentCitations{DocumentID: id, Citations: cites})
	}
	return out
}
