package store

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Current version stamps, bumped whenever the corresponding on-disk format
// or index schema changes in an incompatible way.
const (
	ParserVersion = 1
	IndexVersion  = 1
	SchemaVersion = 1
)

// Metadata is the structured record persisted alongside a source's text,
// outline, and index.
type Metadata struct {
	OriginURL        string    `json:"origin_url"`
	Alias            string    `json:"alias"`
	ETag             string    `json:"etag,omitempty"`
	LastModified     string    `json:"last_modified,omitempty"`
	SHA256           string    `json:"sha256"`
	FetchedAt        time.Time `json:"fetched_at"`
	LineCount        int       `json:"line_count"`
	ByteCount        int       `json:"byte_count"`
	ParserVersion    int       `json:"parser_version"`
	IndexVersion     int       `json:"index_version"`
	SchemaGeneration int       `json:"schema_generation"`
	SchemaVersion    int       `json:"schema_version"`
}

func readMetadata(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("store: corrupted metadata at %s: %w", path, err)
	}
	return &m, nil
}

func writeMetadata(path string, m Metadata) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("store: encode metadata: %w", err)
	}
	return atomicWrite(path, data, 0o644)
}

// OutlineBlock mirrors mdparse.HeadingBlock for on-disk persistence,
// decoupling the storage format from the parser's in-memory types.
type OutlineBlock struct {
	Level     int      `json:"level"`
	Title     string   `json:"title"`
	Path      []string `json:"path"`
	LineStart int      `json:"line_start"`
	LineEnd   int      `json:"line_end"`
	ByteStart int      `json:"byte_start"`
	ByteEnd   int      `json:"byte_end"`
}

// OutlineTOCEntry mirrors mdparse.TOCEntry.
type OutlineTOCEntry struct {
	Level     int    `json:"level"`
	Title     string `json:"title"`
	LineStart int    `json:"line_start"`
}

// OutlineDoc is the persisted form of an outline.
type OutlineDoc struct {
	Blocks []OutlineBlock    `json:"blocks"`
	TOC    []OutlineTOCEntry `json:"toc"`
}

func readOutline(path string) (*OutlineDoc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc OutlineDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("store: corrupted outline at %s: %w", path, err)
	}
	return &doc, nil
}

func writeOutlineFile(path string, doc OutlineDoc) error {
	data, err := marshalOutline(doc)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func marshalOutline(doc OutlineDoc) ([]byte, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("store: encode outline: %w", err)
	}
	return data, nil
}
