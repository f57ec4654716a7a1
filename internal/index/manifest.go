package index

import (
	"encoding/json"

	"legalrag/internal/domain"
)

// Manifest describes a persisted index and how to interpret it.
type Manifest struct {
	FormatVersion int    `json:"format_version"`
	ModelID       string `json:"model_id"`
	Dim           int    `json:"dim"`
	Count         int    `json:"count"`
	SourceLabel   string `json:"source_label"`
	CreatedAt     string `json:"created_at"`
	VectorFile    string `json:"vector_file"`
	RecordsFile   string `json:"records_file"`
}

const (
	manifestFile       = "manifest.json"
	defaultVectorFile  = "vectors.f32"
	defaultRecordsFile = "records.jsonl"
)

// recordLine is one row of records.jsonl.
type recordLine struct {
	ID string `json:"id"`
	domain.ArticleRecord
}

func jsonIndent(m Manifest) ([]byte, error) { return json.MarshalIndent(m, "", "  ") }
