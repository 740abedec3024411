package officetext

import (
	"io"
	"log/slog"

	"github.com/asalih/go-officetext/mscfb"
	"github.com/asalih/go-officetext/ooxml"
	"github.com/asalih/go-officetext/xls"
)

type Options struct {
	// MaxChars caps the result in codepoints; <= 0 means no limit.
	MaxChars int `yaml:"max_chars"`
	// MaxPDFPages caps how many PDF pages are read; <= 0 means all.
	MaxPDFPages int `yaml:"max_pdf_pages"`
	// MaxSST caps how many XLS shared strings are decoded; <= 0 means
	// 0xFFFF.
	MaxSST int `yaml:"max_sst"`
	// Delimiter separates spreadsheet cells; "" means ",".
	Delimiter      string `yaml:"delimiter"`
	KeepBlankCells bool   `yaml:"keep_blank_cells"`
	// IncludeDrawings descends into PPT drawing containers.
	IncludeDrawings bool `yaml:"include_drawings"`
	// XMLMaxFileLen caps every OOXML part read; <= 0 means 1 MiB.
	XMLMaxFileLen int64 `yaml:"xml_max_file_len"`
	// Type skips sniffing when set.
	Type       DocumentType     `yaml:"type"`
	Validation mscfb.Validation `yaml:"validation"`

	Logger *slog.Logger `yaml:"-"`
}

// DefaultOptions returns the settings of the command line tool.
func DefaultOptions() Options {
	return Options{
		MaxPDFPages:     10,
		MaxSST:          xls.DefaultMaxSST,
		Delimiter:       xls.DefaultDelimiter,
		IncludeDrawings: true,
		XMLMaxFileLen:   ooxml.DefaultMaxFileLen,
	}
}

func (o Options) withDefaults() Options {
	if o.MaxSST <= 0 {
		o.MaxSST = xls.DefaultMaxSST
	}
	if o.Delimiter == "" {
		o.Delimiter = xls.DefaultDelimiter
	}
	if o.XMLMaxFileLen <= 0 {
		o.XMLMaxFileLen = ooxml.DefaultMaxFileLen
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}
