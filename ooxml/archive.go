// Package ooxml extracts text from Office Open XML packages (DOCX, PPTX
// and XLSX).
//
// A package is a ZIP archive of XML parts. Parts are read whole, up to a
// per-part cap, and walked token by token with encoding/xml.
package ooxml

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"encoding/xml"
	"errors"
	"io"

	"github.com/asalih/go-officetext/internal/docerr"
)

const (
	DefaultMaxFileLen = 1 << 20

	DocumentPart     = "word/document.xml"
	PresentationPart = "ppt/presentation.xml"
	WorkbookPart     = "xl/workbook.xml"

	zipMagic = 0x04034b50
)

const (
	KindDOCX = "docx"
	KindPPTX = "pptx"
	KindXLSX = "xlsx"
)

type Options struct {
	MaxChars int
	// Delimiter separates cells of an XLSX row; "" means ",".
	Delimiter string
	// MaxSST caps how many XLSX shared strings are kept; <= 0 keeps all.
	// Cells referring past the cap print as "_".
	MaxSST int
}

type Archive struct {
	files      map[string]*zip.File
	maxFileLen int64
}

// IsZip reports whether b starts with a local file header.
func IsZip(b []byte) bool {
	return len(b) >= 4 && binary.LittleEndian.Uint32(b) == zipMagic
}

// Open indexes the parts of the package in data. Parts larger than
// maxFileLen are cut to that length when read; maxFileLen <= 0 means
// DefaultMaxFileLen.
func Open(data []byte, maxFileLen int64) (*Archive, error) {
	if !IsZip(data) {
		return nil, docerr.Formatf("not a zip archive")
	}
	if maxFileLen <= 0 {
		maxFileLen = DefaultMaxFileLen
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, docerr.Formatf("open zip: %v", err)
	}

	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}

	return &Archive{files: files, maxFileLen: maxFileLen}, nil
}

func (a *Archive) HasFile(name string) bool {
	_, ok := a.files[name]
	return ok
}

// Detect names the kind of document by its main part, or returns "".
func (a *Archive) Detect() string {
	switch {
	case a.HasFile(DocumentPart):
		return KindDOCX
	case a.HasFile(PresentationPart):
		return KindPPTX
	case a.HasFile(WorkbookPart):
		return KindXLSX
	}
	return ""
}

// ReadFile returns the content of a part, cut to the archive's read cap.
func (a *Archive) ReadFile(name string) ([]byte, error) {
	data, _, err := a.readPart(name)
	return data, err
}

func (a *Archive) readPart(name string) ([]byte, bool, error) {
	f, ok := a.files[name]
	if !ok {
		return nil, false, docerr.Formatf("no %s part", name)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, false, docerr.Formatf("open %s: %v", name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, a.maxFileLen+1))
	if err != nil {
		return nil, false, docerr.Formatf("read %s: %v", name, err)
	}

	truncated := int64(len(data)) > a.maxFileLen
	if truncated {
		data = data[:a.maxFileLen]
	}
	return data, truncated, nil
}

// decode feeds every token of a part to fn until fn returns false or the
// part ends. A syntax error in a part that was cut by the read cap ends the
// walk quietly.
func (a *Archive) decode(name string, fn func(tok xml.Token) bool) error {
	data, truncated, err := a.readPart(name)
	if err != nil {
		return err
	}

	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) || truncated {
				return nil
			}
			return docerr.Formatf("decode %s: %v", name, err)
		}
		if !fn(tok) {
			return nil
		}
	}
}

func attr(se xml.StartElement, local string) (string, bool) {
	for _, a := range se.Attr {
		if a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}
