// Package officetext extracts plain text from office documents.
//
// The legacy binary formats (Word, PowerPoint and Excel 97-2003) are read
// from their compound file container. Office Open XML packages and PDF
// files are handled by the ooxml and pdftext packages.
package officetext

import (
	"log/slog"
	"unicode/utf8"

	"github.com/asalih/go-officetext/doc"
	"github.com/asalih/go-officetext/internal/docerr"
	"github.com/asalih/go-officetext/internal/textbuf"
	"github.com/asalih/go-officetext/mscfb"
	"github.com/asalih/go-officetext/ooxml"
	"github.com/asalih/go-officetext/pdftext"
	"github.com/asalih/go-officetext/ppt"
	"github.com/asalih/go-officetext/xls"
)

// ExtractText returns the type of data and its text. Unless opts.Type is
// set the type is sniffed from the content. On error the text is empty;
// the returned type is whatever was determined before the failure.
func ExtractText(data []byte, opts Options) (DocumentType, string, error) {
	opts = opts.withDefaults()
	log := opts.Logger

	t, text, err := extract(data, opts)
	if err != nil {
		log.Debug("extraction failed", slog.String("type", t.String()), slog.Any("err", err))
		return t, "", err
	}

	text = textbuf.Sanitize(text)
	log.Debug("extracted text", slog.String("type", t.String()), slog.Int("chars", utf8.RuneCountInString(text)))
	return t, text, nil
}

func extract(data []byte, opts Options) (DocumentType, string, error) {
	t := opts.Type

	if t == TypePDF || (t == TypeUnknown && pdfOffset(data) >= 0) {
		opts.Logger.Debug("decoding pdf", slog.Int("offset", pdfOffset(data)), slog.Int("max_pages", opts.MaxPDFPages))
		text, err := pdftext.Extract(pdfBody(data), pdftext.Options{
			MaxChars: opts.MaxChars,
			MaxPages: opts.MaxPDFPages,
		})
		return TypePDF, text, err
	}

	if ooxml.IsZip(data) {
		return extractOOXML(data, t, opts)
	}
	return extractCompound(data, t, opts)
}

func extractOOXML(data []byte, t DocumentType, opts Options) (DocumentType, string, error) {
	a, err := ooxml.Open(data, opts.XMLMaxFileLen)
	if err != nil {
		return t, "", err
	}

	if t == TypeUnknown {
		t = ooxmlTypes[a.Detect()]
		opts.Logger.Debug("sniffed zip package", slog.String("type", t.String()))
		if t == TypeUnknown {
			return t, "", docerr.Unsupportedf("zip archive holds no office document")
		}
	}

	xo := ooxml.Options{MaxChars: opts.MaxChars, Delimiter: opts.Delimiter, MaxSST: opts.MaxSST}
	switch t {
	case TypeDOCX:
		text, err := a.FetchDOCX(xo)
		return t, text, err
	case TypePPTX:
		text, err := a.FetchPPTX(xo)
		return t, text, err
	case TypeXLSX:
		text, err := a.FetchXLSX(xo)
		return t, text, err
	}
	return t, "", docerr.Unsupportedf("%v document in a zip archive", t)
}

func extractCompound(data []byte, t DocumentType, opts Options) (DocumentType, string, error) {
	cd, err := mscfb.Open(data, opts.Validation)
	if err != nil {
		return t, "", err
	}

	if t == TypeUnknown {
		t = sniffCompound(cd)
		opts.Logger.Debug("sniffed compound file", slog.String("type", t.String()), slog.Int("entries", len(cd.Entries())))
		if t == TypeUnknown {
			return t, "", docerr.Unsupportedf("compound file holds no known document stream")
		}
	}

	switch t {
	case TypeDOC:
		d, err := doc.New(cd)
		if err != nil {
			return t, "", err
		}
		text, err := d.FetchText(doc.Options{MaxChars: opts.MaxChars})
		return t, text, err
	case TypePPT:
		p, err := ppt.New(cd)
		if err != nil {
			return t, "", err
		}
		text, err := p.FetchText(ppt.Options{
			MaxChars:        opts.MaxChars,
			IncludeDrawings: opts.IncludeDrawings,
		})
		return t, text, err
	case TypeXLS:
		w, err := xls.New(cd)
		if err != nil {
			return t, "", err
		}
		text, err := w.FetchText(xls.Options{
			MaxChars:       opts.MaxChars,
			MaxSST:         opts.MaxSST,
			Delimiter:      opts.Delimiter,
			KeepBlankCells: opts.KeepBlankCells,
		})
		return t, text, err
	}
	return t, "", docerr.Unsupportedf("%v document in a compound file", t)
}
