package logconfig

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cherubic/NLog/internal/infrastructure/config"
	"github.com/cherubic/NLog/internal/infrastructure/logging"
	"github.com/cherubic/NLog/internal/lifecycle"
)

// Options adjust how documents build their handlers. They are carried over
// to every document produced by Reload.
type Options struct {
	// Writer overrides the document's output setting when non-nil.
	Writer io.Writer

	// Version is attached to every record as the "version" attribute.
	Version string
}

// Document is an immutable logging configuration snapshot.
type Document struct {
	Path       string
	AutoReload bool
	Level      string
	Format     string
	Output     string

	variables map[string]string
	digest    [sha256.Size]byte
	handler   slog.Handler
	opts      Options
}

// rawDocument mirrors the YAML layout.
type rawDocument struct {
	AutoReload *bool             `yaml:"auto_reload"`
	Level      string            `yaml:"level"`
	Format     string            `yaml:"format"`
	Output     string            `yaml:"output"`
	Variables  map[string]string `yaml:"variables"`
}

var _ lifecycle.Configuration = (*Document)(nil)

// Load reads and validates the document at path.
func Load(path string) (*Document, error) {
	return LoadWithOptions(path, Options{})
}

// LoadWithOptions is Load with explicit handler options.
func LoadWithOptions(path string, opts Options) (*Document, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	data, err := os.ReadFile(path) //nolint:gosec // path comes from trusted daemon config
	if err != nil {
		return nil, fmt.Errorf("reading logging config %s: %w", path, err)
	}

	return Parse(path, data, opts)
}

// Parse builds a Document from raw YAML. path is recorded for reloads.
func Parse(path string, data []byte, opts Options) (*Document, error) {
	var raw rawDocument
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidDocument, path, err)
	}

	doc := &Document{
		Path:       path,
		AutoReload: true,
		Level:      strings.ToLower(raw.Level),
		Format:     strings.ToLower(raw.Format),
		Output:     strings.ToLower(raw.Output),
		variables:  maps.Clone(raw.Variables),
		digest:     sha256.Sum256(data),
		opts:       opts,
	}
	if raw.AutoReload != nil {
		doc.AutoReload = *raw.AutoReload
	}
	if doc.Level == "" {
		doc.Level = "info"
	}
	if doc.Format == "" {
		doc.Format = "json"
	}
	if doc.Output == "" {
		doc.Output = "stdout"
	}

	if err := doc.validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidDocument, path, err)
	}

	doc.handler = doc.buildHandler()
	return doc, nil
}

// Reload re-reads Path. It returns (nil, nil) when the file content is
// unchanged since this document was loaded.
func (d *Document) Reload() (lifecycle.Configuration, error) {
	data, err := os.ReadFile(d.Path) //nolint:gosec // path comes from trusted daemon config
	if err != nil {
		return nil, fmt.Errorf("reading logging config %s: %w", d.Path, err)
	}

	if sha256.Sum256(data) == d.digest {
		return nil, nil
	}

	next, err := Parse(d.Path, data, d.opts)
	if err != nil {
		return nil, err
	}
	return next, nil
}

// Variables returns a copy of the attributes attached to every record.
func (d *Document) Variables() map[string]string {
	return maps.Clone(d.variables)
}

// Handler returns the slog.Handler built for this document.
func (d *Document) Handler() slog.Handler {
	return d.handler
}

// String identifies the document by path and a digest prefix.
func (d *Document) String() string {
	return fmt.Sprintf("%s@%x", d.Path, d.digest[:4])
}

// Digest returns the hex SHA-256 of the document source.
func (d *Document) Digest() string {
	return fmt.Sprintf("%x", d.digest)
}

func (d *Document) validate() error {
	var errs []error

	if _, err := logging.ParseLevel(d.Level); err != nil {
		errs = append(errs, fmt.Errorf("level %q must be one of debug, info, warn, error", d.Level))
	}

	switch d.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("format %q must be json or text", d.Format))
	}

	switch d.Output {
	case "stdout", "stderr", "discard":
	default:
		errs = append(errs, fmt.Errorf("output %q must be stdout, stderr or discard", d.Output))
	}

	for key := range d.variables {
		if strings.TrimSpace(key) == "" {
			errs = append(errs, errors.New("variables must not contain an empty key"))
			break
		}
	}

	return errors.Join(errs...)
}

func (d *Document) buildHandler() slog.Handler {
	w := d.opts.Writer
	if w == nil {
		w = logging.OutputWriter(d.Output)
	}

	handler := logging.NewHandler(config.LoggingConfig{
		Level:  d.Level,
		Format: d.Format,
	}, w, d.opts.Version)

	if len(d.variables) == 0 {
		return handler
	}

	keys := make([]string, 0, len(d.variables))
	for k := range d.variables {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]slog.Attr, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, slog.String(k, d.variables[k]))
	}
	return handler.WithAttrs(attrs)
}
