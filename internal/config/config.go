// Package config resolves extraction settings for the command line tool.
//
// Settings are layered: built-in defaults, then an optional YAML file, then
// OFFICETEXT_* environment variables (after an optional .env file has been
// loaded into the environment). Command line flags are applied last by the
// caller.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	officetext "github.com/asalih/go-officetext"
	"github.com/asalih/go-officetext/mscfb"
)

const (
	EnvMaxChars       = "OFFICETEXT_MAX_CHARS"
	EnvMaxPDFPages    = "OFFICETEXT_MAX_PDF_PAGES"
	EnvMaxSST         = "OFFICETEXT_MAX_SST"
	EnvDelimiter      = "OFFICETEXT_DELIMITER"
	EnvKeepBlankCells = "OFFICETEXT_KEEP_BLANK_CELLS"
	EnvDrawings       = "OFFICETEXT_DRAWINGS"
	EnvXMLMaxFileLen  = "OFFICETEXT_XML_MAX_FILE_LEN"
	EnvType           = "OFFICETEXT_TYPE"
	EnvStrict         = "OFFICETEXT_STRICT"
	EnvLogLevel       = "OFFICETEXT_LOG_LEVEL"

	DefaultEnvFile = ".env"

	// DefaultMaxChars is the character budget of the command line, which
	// unlike the library does not extract without limit.
	DefaultMaxChars = 4096
)

type Config struct {
	officetext.Options `yaml:",inline"`

	LogLevel string `yaml:"log_level"`
}

func Default() *Config {
	cfg := &Config{
		Options:  officetext.DefaultOptions(),
		LogLevel: "info",
	}
	cfg.MaxChars = DefaultMaxChars
	return cfg
}

// Load reads the YAML file at path, if path is not empty, and then applies
// the environment. envFiles are loaded into the environment first without
// overriding variables already set; missing env files are ignored. With no
// envFiles, DefaultEnvFile is tried.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := cfg.decodeYAML(data); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if len(envFiles) == 0 {
		envFiles = []string{DefaultEnvFile}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decodeYAML(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	ints := []struct {
		key string
		dst *int
	}{
		{EnvMaxChars, &c.MaxChars},
		{EnvMaxPDFPages, &c.MaxPDFPages},
		{EnvMaxSST, &c.MaxSST},
	}
	for _, v := range ints {
		s, ok := lookup(v.key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("%s: %w", v.key, err)
		}
		*v.dst = n
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{EnvKeepBlankCells, &c.KeepBlankCells},
		{EnvDrawings, &c.IncludeDrawings},
	}
	for _, v := range bools {
		s, ok := lookup(v.key)
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("%s: %w", v.key, err)
		}
		*v.dst = b
	}

	if s, ok := lookup(EnvDelimiter); ok {
		c.Delimiter = s
	}

	if s, ok := lookup(EnvXMLMaxFileLen); ok {
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvXMLMaxFileLen, err)
		}
		c.XMLMaxFileLen = n
	}

	if s, ok := lookup(EnvType); ok {
		t, err := officetext.ParseDocumentType(s)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvType, err)
		}
		c.Type = t
	}

	if s, ok := lookup(EnvStrict); ok {
		strict, err := strconv.ParseBool(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("%s: %w", EnvStrict, err)
		}
		c.Validation = mscfb.ValidationPermissive
		if strict {
			c.Validation = mscfb.ValidationStrict
		}
	}

	if s, ok := lookup(EnvLogLevel); ok {
		if _, err := ParseLevel(s); err != nil {
			return fmt.Errorf("%s: %w", EnvLogLevel, err)
		}
		c.LogLevel = s
	}

	return nil
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, err
	}
	return level, nil
}
