package model

// DataSource records one accepted raw file upload. Rows are immutable and
// only removed when their persona is deleted.
type DataSource struct {
	ID             string         `json:"id"`
	PersonaID      string         `json:"persona_id"`
	CollectionType CollectionType `json:"collection_type"`
	FileName       string         `json:"file_name"`
	FilePath       string         `json:"file_path"`
	FileSizeBytes  int64          `json:"file_size_bytes"`
	Ctime          int64          `json:"ctime"`
}
