package model

// Quote is one line of an all_quotes.jsonl file.
type Quote struct {
	Text       string `json:"text"`
	SourceType string `json:"source_type,omitempty"`
	SourceFile string `json:"source_file,omitempty"`
}
