package storage

import (
	"encoding/hex"
	"strconv"

	"github.com/matsen/citenum/internal/numbering"
	"github.com/zeebo/blake3"
)

// Revision returns a BLAKE3 digest of a scope: the project's document order
// followed by the citation fields that numbering reads and writes, in order.
// Two scopes with the same revision number identically.
func Revision(order []string, cs []numbering.Citation) string {
	h := blake3.New()
	var buf []byte
	for _, id := range order {
		buf = append(buf[:0], "doc\x00"...)
		buf = append(buf, id...)
		buf = append(buf, '\n')
		_, _ = h.Write(buf)
	}
	for _, c := range cs {
		buf = append(buf[:0], "cite\x00"...)
		buf = append(buf, c.ID...)
		buf = append(buf, 0)
		buf = append(buf, c.DocumentID...)
		buf = append(buf, 0)
		buf = append(buf, c.ArticleID...)
		buf = append(buf, 0)
		buf = strconv.AppendInt(buf, int64(c.InlineNumber), 10)
		buf = append(buf, 0)
		buf = strconv.AppendInt(buf, int64(c.SubNumber), 10)
		buf = append(buf, '\n')
		_, _ = h.Write(buf)
	}
	return hex.EncodeToString(h.Sum(nil))
}
