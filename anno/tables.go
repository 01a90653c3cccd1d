package anno

// Tables bundles the four annotation tables an address space owns.
type Tables struct {
	Labels   *LabelTable
	Comments *CommentTable
	Xrefs    *XrefTable
	ArgProps *ArgPropTable
}

// NewTables creates a fresh, empty set of annotation tables.
func NewTables() *Tables {
	return &Tables{
		Labels:   NewLabelTable(),
		Comments: NewCommentTable(),
		Xrefs:    NewXrefTable(),
		ArgProps: NewArgPropTable(),
	}
}
