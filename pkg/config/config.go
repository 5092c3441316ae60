// Package config loads deadhunt settings from TOML, YAML, JSON or JSONC files.
package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	kjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/muhammadmuzzammil1998/jsonc"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/panbanda/deadhunt/pkg/hunt"
)

// Config holds all configuration options for deadhunt.
type Config struct {
	// What to hunt for
	Hunt HuntConfig `koanf:"hunt" json:"hunt" toml:"hunt"`

	// Which files each pass sees
	Scan ScanConfig `koanf:"scan" json:"scan" toml:"scan"`

	// Cache settings
	Cache CacheConfig `koanf:"cache" json:"cache" toml:"cache"`

	// Output settings
	Output OutputConfig `koanf:"output" json:"output" toml:"output"`
}

// HuntConfig controls the engine.
type HuntConfig struct {
	Dir        string   `koanf:"dir" json:"dir" toml:"dir"`
	Categories []string `koanf:"categories" json:"categories" toml:"categories"`
	Detectors  []string `koanf:"detectors" json:"detectors" toml:"detectors"`
	Strict     bool     `koanf:"strict" json:"strict" toml:"strict"` // skip files with syntax errors
	Workers    int      `koanf:"workers" json:"workers" toml:"workers"`
}

// ScanConfig defines file discovery for both passes.
type ScanConfig struct {
	Extensions  []string   `koanf:"extensions" json:"extensions" toml:"extensions"`
	Register    PassConfig `koanf:"register" json:"register" toml:"register"`
	Usage       PassConfig `koanf:"usage" json:"usage" toml:"usage"`
	Gitignore   bool       `koanf:"gitignore" json:"gitignore" toml:"gitignore"`
	MaxFileSize int64      `koanf:"max_file_size" json:"max_file_size" toml:"max_file_size"` // bytes, 0 = unlimited
}

// PassConfig holds the exclusion globs of one pass.
type PassConfig struct {
	Exclude []string `koanf:"exclude" json:"exclude" toml:"exclude"`
}

// CacheConfig controls caching behavior.
type CacheConfig struct {
	Enabled bool   `koanf:"enabled" json:"enabled" toml:"enabled"`
	Dir     string `koanf:"dir" json:"dir" toml:"dir"`
	TTL     int    `koanf:"ttl" json:"ttl" toml:"ttl"` // TTL in hours
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format  string `koanf:"format" json:"format" toml:"format"` // text, json, markdown, toon
	Color   bool   `koanf:"color" json:"color" toml:"color"`
	Verbose bool   `koanf:"verbose" json:"verbose" toml:"verbose"`
}

// Formats lists the accepted output formats.
var Formats = []string{"text", "json", "markdown", "toon"}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Hunt: HuntConfig{
			Dir:        "./src",
			Categories: []string{"component", "hook", "function", "type"},
			Detectors:  []string{"import", "markup", "identifier", "type"},
			Strict:     true,
		},
		Scan: ScanConfig{
			Extensions: []string{".js", ".jsx", ".ts", ".tsx"},
			Register: PassConfig{
				Exclude: []string{"**/node_modules/**", "**/dist/**", "**/*.d.ts"},
			},
			Usage: PassConfig{
				Exclude: []string{"**/node_modules/**", "**/dist/**"},
			},
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     ".deadhunt/cache",
			TTL:     24,
		},
		Output: OutputConfig{
			Format: "text",
			Color:  true,
		},
	}
}

// Validate checks values the schema cannot express.
func (c *Config) Validate() error {
	var errs []error
	if _, err := hunt.ParseCategorySet(c.Hunt.Categories); err != nil {
		errs = append(errs, fmt.Errorf("hunt.categories: %w", err))
	}
	if _, err := hunt.ParseDetectorSet(c.Hunt.Detectors); err != nil {
		errs = append(errs, fmt.Errorf("hunt.detectors: %w", err))
	}
	if c.Hunt.Workers < 0 {
		errs = append(errs, fmt.Errorf("hunt.workers: must not be negative"))
	}
	if !slices.Contains(Formats, c.Output.Format) {
		errs = append(errs, fmt.Errorf("output.format: unknown format %q", c.Output.Format))
	}
	for _, ext := range c.Scan.Extensions {
		if !strings.HasPrefix(ext, ".") {
			errs = append(errs, fmt.Errorf("scan.extensions: %q must start with a dot", ext))
		}
	}
	return errors.Join(errs...)
}

// Categories returns the parsed category selection.
func (c *Config) Categories() (hunt.CategorySet, error) {
	return hunt.ParseCategorySet(c.Hunt.Categories)
}

// Detectors returns the parsed detector selection.
func (c *Config) Detectors() (hunt.DetectorSet, error) {
	return hunt.ParseDetectorSet(c.Hunt.Detectors)
}

// Load loads configuration from a file over the defaults.
func Load(path string) (*Config, error) {
	fk := koanf.New(".")
	if err := fk.Load(file.Provider(path), parserFor(path)); err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	if err := validateRaw(fk.Raw()); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	k := koanf.New(".")
	if err := k.Load(defaultsProvider{}, kjson.Parser()); err != nil {
		return nil, err
	}
	// Merge replaces lists wholesale, so a file's exclude list overrides the default one.
	if err := k.Merge(fk); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Names are the config file names searched for, in priority order.
var Names = []string{
	"deadhunt.toml",
	"deadhunt.yaml",
	"deadhunt.yml",
	"deadhunt.json",
	"deadhunt.jsonc",
	".deadhunt.toml",
	".deadhunt.yaml",
	".deadhunt.yml",
	".deadhunt.json",
	".deadhunt.jsonc",
}

// Find returns the first config file in dir or dir/.deadhunt, or "".
func Find(dir string) string {
	for _, d := range []string{dir, filepath.Join(dir, ".deadhunt")} {
		for _, name := range Names {
			path := filepath.Join(d, name)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path
			}
		}
	}
	return ""
}

// LoadOrDefault loads the explicit path when given, otherwise the first config
// found in dir, otherwise the defaults. It returns the path that was loaded.
func LoadOrDefault(explicit, dir string) (*Config, string, error) {
	path := explicit
	if path == "" {
		path = Find(dir)
	}
	if path == "" {
		return DefaultConfig(), "", nil
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

func parserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser()
	case ".json":
		return kjson.Parser()
	case ".jsonc":
		return jsoncParser{}
	default:
		return toml.Parser()
	}
}

// jsoncParser is a koanf parser for JSON with comments and trailing commas.
type jsoncParser struct{}

func (jsoncParser) Unmarshal(b []byte) (map[string]interface{}, error) {
	return kjson.Parser().Unmarshal(jsonc.ToJSON(b))
}

func (jsoncParser) Marshal(m map[string]interface{}) ([]byte, error) {
	return kjson.Parser().Marshal(m)
}

// defaultsProvider feeds DefaultConfig into koanf as JSON.
type defaultsProvider struct{}

func (defaultsProvider) ReadBytes() ([]byte, error) {
	return json.Marshal(DefaultConfig())
}

func (defaultsProvider) Read() (map[string]interface{}, error) {
	return nil, errors.New("defaults provider does not support Read")
}

//go:embed config.schema.json
var schemaJSON []byte

const schemaURL = "mem://schemas/config.schema.json"

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
		if err != nil {
			schemaErr = fmt.Errorf("decode schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, doc); err != nil {
			schemaErr = fmt.Errorf("register schema: %w", err)
			return
		}
		schema, schemaErr = c.Compile(schemaURL)
	})
	return schema, schemaErr
}

// validateRaw checks a loaded config tree against the embedded schema.
func validateRaw(raw map[string]interface{}) error {
	s, err := compiledSchema()
	if err != nil {
		return err
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return err
	}
	return s.Validate(inst)
}
