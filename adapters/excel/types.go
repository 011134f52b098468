package excel

// Record is one non-comment row of a tabular file with its 1-based line
// (delimited text) or row (spreadsheet) number
type Record struct {
	Line   int
	Fields []string
}

// Width returns the number of fields
func (r Record) Width() int {
	return len(r.Fields)
}

// Field returns field i, or "" past the end of a short row
func (r Record) Field(i int) string {
	if i < len(r.Fields) {
		return r.Fields[i]
	}
	return ""
}
