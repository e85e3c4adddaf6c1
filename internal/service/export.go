package service

import (
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jask/mvu/internal/database/repository"
)

// Export is the document written by Exporter.
type Export struct {
	GeneratedAt time.Time             `yaml:"generated_at"`
	Categories  []repository.Category `yaml:"categories"`
	Entries     []repository.Entry    `yaml:"entries"`
}

// Exporter writes ledger snapshots as YAML.
type Exporter struct{}

func (Exporter) WriteYAML(w io.Writer, doc Export) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	return enc.Close()
}

// ReadYAML decodes a document written by WriteYAML.
func (Exporter) ReadYAML(r io.Reader) (Export, error) {
	var doc Export
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return Export{}, fmt.Errorf("decode export: %w", err)
	}
	return doc, nil
}
