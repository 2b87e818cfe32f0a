// Package extract loads catalog products from seed files.
package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nexventures/nexsearch/internal/models"
)

var (
	// ErrUnsupportedFormat is returned for a file extension with no loader.
	ErrUnsupportedFormat = errors.New("unsupported seed file format")
	// ErrInvalidRecord is returned for a record that cannot become a product.
	ErrInvalidRecord = errors.New("invalid product record")
)

// Extensions lists the seed file extensions Loader understands.
var Extensions = []string{".json", ".yaml", ".yml", ".xlsx"}

// Supported reports whether path has a seed file extension.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// Loader reads products from JSON, YAML and XLSX files.
type Loader struct{}

// NewLoader returns a new Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads the file at path and returns its products.
// Returns an error if the file cannot be read, the format is unsupported, or
// any record is invalid.
func (l *Loader) Load(path string) ([]models.Product, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	products, err := l.LoadBytes(content, strings.ToLower(filepath.Ext(path)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return products, nil
}

// LoadBytes decodes content based on the given extension.
// ext should include the leading dot (e.g. ".json").
func (l *Loader) LoadBytes(content []byte, ext string) ([]models.Product, error) {
	var (
		records []record
		err     error
	)
	switch ext {
	case ".json":
		records, err = decodeJSON(content)
	case ".yaml", ".yml":
		records, err = decodeYAML(content)
	case ".xlsx":
		records, err = decodeXLSX(content)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, err
	}

	products := make([]models.Product, 0, len(records))
	for i, r := range records {
		p, err := r.product()
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}
		products = append(products, p)
	}
	return products, nil
}
