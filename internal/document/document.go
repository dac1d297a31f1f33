package document

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// Format identifies how a document is encoded on disk
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// maxConcurrentLoads bounds the number of files read at once by LoadAll
const maxConcurrentLoads = 8

// ParseFormat validates a user-supplied format name
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("invalid format: %s (must be 'yaml' or 'json')", name)
	}
}

// FormatOf infers the format from a file extension. Unknown extensions are
// read as YAML, which accepts JSON as well.
func FormatOf(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// Document is a decoded data file. Body holds generic Go values: maps,
// slices, strings, numbers, booleans and nil.
type Document struct {
	Path   string
	Format Format
	Body   any
}

// Load reads and decodes the document at path
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	doc, err := Decode(data, FormatOf(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	doc.Path = path
	return doc, nil
}

// Decode parses data. JSON is decoded with the YAML parser, which accepts
// it, so documents in either format yield the same Go types.
func Decode(data []byte, format Format) (*Document, error) {
	var body any
	if err := yaml.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", strings.ToUpper(string(format)), err)
	}
	return &Document{Format: format, Body: body}, nil
}

// LoadAll loads every path concurrently. The result keeps the order of
// paths; the first failure cancels the remaining loads.
func LoadAll(ctx context.Context, paths []string) ([]*Document, error) {
	docs := make([]*Document, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLoads)

	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			doc, err := Load(path)
			if err != nil {
				return err
			}
			docs[i] = doc
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}

// Encode writes body to w in the given format
func Encode(w io.Writer, body any, format Format) error {
	switch format {
	case FormatJSON:
		body, err := jsonKeys(body)
		if err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(body); err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
	default:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(body); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
	}
	return nil
}

// jsonKeys rewrites mappings with non-string keys, which YAML allows, into
// string-keyed maps. Keys are formatted with fmt; two keys that format the
// same are an error.
func jsonKeys(v any) (any, error) {
	switch v := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			conv, err := jsonKeys(val)
			if err != nil {
				return nil, err
			}
			out[k] = conv
		}
		return out, nil
	case map[any]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			key := fmt.Sprint(k)
			if _, dup := out[key]; dup {
				return nil, fmt.Errorf("mapping has more than one key written %q", key)
			}
			conv, err := jsonKeys(val)
			if err != nil {
				return nil, err
			}
			out[key] = conv
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			conv, err := jsonKeys(val)
			if err != nil {
				return nil, err
			}
			out[i] = conv
		}
		return out, nil
	}
	return v, nil
}
