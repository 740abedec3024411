// Package pdftext extracts the plain text of the first pages of a PDF
// document.
package pdftext

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"

	"github.com/asalih/go-officetext/internal/docerr"
	"github.com/asalih/go-officetext/internal/textbuf"
)

const Signature = "%PDF-"

type Options struct {
	MaxChars int
	// MaxPages bounds how many pages are read; <= 0 reads every page.
	MaxPages int
}

// Extract returns the text of pages 1 to opts.MaxPages. A page whose
// content cannot be decoded is skipped.
func Extract(data []byte, opts Options) (string, error) {
	r, err := open(data)
	if err != nil {
		return "", err
	}

	pages := r.NumPage()
	if opts.MaxPages > 0 && pages > opts.MaxPages {
		pages = opts.MaxPages
	}

	buf := textbuf.New(opts.MaxChars)
	fonts := make(map[string]*pdf.Font)
	for i := 1; i <= pages && !buf.Exhausted(); i++ {
		text, err := pageText(r, i, fonts)
		if err != nil || text == "" {
			continue
		}
		buf.WriteString(text)
	}

	return textbuf.Sanitize(buf.String()), nil
}

func open(data []byte) (r *pdf.Reader, err error) {
	defer func() {
		if v := recover(); v != nil {
			r, err = nil, docerr.Formatf("open pdf: %v", v)
		}
	}()

	r, err = pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, docerr.Formatf("open pdf: %v", err)
	}
	return r, nil
}

// pageText decodes one page, filling the shared font cache as it goes.
func pageText(r *pdf.Reader, i int, fonts map[string]*pdf.Font) (text string, err error) {
	defer func() {
		if v := recover(); v != nil {
			text, err = "", fmt.Errorf("page %d: %v", i, v)
		}
	}()

	p := r.Page(i)
	if p.V.IsNull() {
		return "", fmt.Errorf("page %d: missing", i)
	}
	for _, name := range p.Fonts() {
		if _, ok := fonts[name]; ok {
			continue
		}
		f := p.Font(name)
		fonts[name] = &f
	}
	return p.GetPlainText(fonts)
}
