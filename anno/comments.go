package anno

import "sort"

// CommentRecord is a single comment, ready for persistence.
type CommentRecord struct {
	Addr uint32
	Text string
}

// CommentTable maps addresses to a free-form user comment string.
type CommentTable struct {
	m map[uint32]string
}

// NewCommentTable creates an empty comment table.
func NewCommentTable() *CommentTable {
	return &CommentTable{m: make(map[uint32]string)}
}

// Set stores the comment at addr. Setting the empty string removes any
// existing comment.
func (t *CommentTable) Set(addr uint32, text string) {
	if text == "" {
		delete(t.m, addr)
		return
	}
	t.m[addr] = text
}

// Get returns the comment at addr, if any.
func (t *CommentTable) Get(addr uint32) (string, bool) {
	s, ok := t.m[addr]
	return s, ok
}

// All returns every comment, sorted by address, ready for persistence.
func (t *CommentTable) All() []CommentRecord {
	out := make([]CommentRecord, 0, len(t.m))
	for addr, text := range t.m {
		out = append(out, CommentRecord{Addr: addr, Text: text})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Addr < out[j].Addr })
	return out
}
