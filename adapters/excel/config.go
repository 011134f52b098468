package excel

// ReaderConfig controls how tabular files are tokenized
type ReaderConfig struct {
	// Delimiter separates fields in delimited text; 0 picks one from the
	// file extension (',' for .csv, tab otherwise)
	Delimiter rune `json:"delimiter"`
	// Comment starts a line that is skipped
	Comment rune `json:"comment"`
	// MissingTokens are cell values read as missing in numeric matrices
	MissingTokens []string `json:"missing_tokens"`
}

// DefaultReaderConfig returns tab-delimited settings with `#` comments
func DefaultReaderConfig() ReaderConfig {
	return ReaderConfig{
		Comment:       '#',
		MissingTokens: []string{"", "NA", "NaN", "nan", "NULL"},
	}
}

func (c ReaderConfig) isMissing(s string) bool {
	for _, tok := range c.MissingTokens {
		if s == tok {
			return true
		}
	}
	return false
}
