package ooxml

import (
	"encoding/xml"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/asalih/go-officetext/internal/textbuf"
)

const (
	SharedStringsPart = "xl/sharedStrings.xml"
	WorkbookRelsPart  = "xl/_rels/workbook.xml.rels"

	defaultDelimiter = ","
)

// Sheet is a sheet entry of xl/workbook.xml.
type Sheet struct {
	Name    string
	SheetID string
	RelID   string
	State   string
}

// Visible reports whether the sheet is shown. A missing state means
// visible.
func (s Sheet) Visible() bool {
	return s.State == "" || s.State == "visible"
}

// FetchXLSX returns the name of every visible sheet followed by its rows,
// cells separated by opts.Delimiter.
func (a *Archive) FetchXLSX(opts Options) (string, error) {
	delimiter := opts.Delimiter
	if delimiter == "" {
		delimiter = defaultDelimiter
	}

	sst, total, err := a.SharedStrings(opts.MaxSST)
	if err != nil {
		return "", err
	}

	sheets, err := a.Sheets()
	if err != nil {
		return "", err
	}

	targets, err := a.workbookTargets()
	if err != nil {
		return "", err
	}

	buf := textbuf.New(opts.MaxChars)
	for _, sheet := range sheets {
		if buf.Exhausted() {
			break
		}
		if !sheet.Visible() {
			continue
		}

		buf.WriteString(sheet.Name)
		buf.WriteNewline()

		part, ok := targets[sheet.RelID]
		if !ok {
			part = fmt.Sprintf("xl/worksheets/sheet%s.xml", sheet.SheetID)
		}
		if !a.HasFile(part) {
			break
		}

		w := &sheetWriter{sst: sst, total: total, delimiter: delimiter, buf: buf}
		if err := a.decode(part, w.token); err != nil {
			return "", err
		}
	}

	return textbuf.Sanitize(buf.String()), nil
}

// SharedStrings returns up to limit entries of the shared string table
// (all of them when limit <= 0) and the number of entries the table holds.
// A package without one has an empty table. Phonetic runs are left out.
func (a *Archive) SharedStrings(limit int) ([]string, int, error) {
	if !a.HasFile(SharedStringsPart) {
		return nil, 0, nil
	}

	var (
		sst        []string
		total      int
		sb         strings.Builder
		inText     bool
		inPhonetic bool
	)
	err := a.decode(SharedStringsPart, func(tok xml.Token) bool {
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "si":
				sb.Reset()
			case "rPh":
				inPhonetic = true
			case "t":
				inText = !inPhonetic
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "rPh":
				inPhonetic = false
			case "si":
				if limit <= 0 || total < limit {
					sst = append(sst, sb.String())
				}
				total++
			}
		}
		return true
	})
	if err != nil {
		return nil, 0, err
	}
	return sst, total, nil
}

// Sheets lists the sheets declared by xl/workbook.xml in order.
func (a *Archive) Sheets() ([]Sheet, error) {
	var sheets []Sheet
	err := a.decode(WorkbookPart, func(tok xml.Token) bool {
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "sheet" {
			return true
		}

		var s Sheet
		s.Name, _ = attr(se, "name")
		s.SheetID, _ = attr(se, "sheetId")
		s.RelID, _ = attr(se, "id")
		s.State, _ = attr(se, "state")
		sheets = append(sheets, s)
		return true
	})
	if err != nil {
		return nil, err
	}
	return sheets, nil
}

// workbookTargets maps relationship ids of the workbook to part names.
func (a *Archive) workbookTargets() (map[string]string, error) {
	targets := make(map[string]string)
	if !a.HasFile(WorkbookRelsPart) {
		return targets, nil
	}

	err := a.decode(WorkbookRelsPart, func(tok xml.Token) bool {
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "Relationship" {
			return true
		}

		id, _ := attr(se, "Id")
		target, _ := attr(se, "Target")
		if id == "" || target == "" {
			return true
		}
		if strings.HasPrefix(target, "/") {
			targets[id] = strings.TrimPrefix(target, "/")
		} else {
			targets[id] = path.Join("xl", target)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return targets, nil
}

type sheetWriter struct {
	sst       []string
	total     int
	delimiter string
	buf       *textbuf.Buffer

	emptyRow bool
	cellType string
	hasValue bool
	inValue  bool
	inInline bool
	value    strings.Builder
}

func (w *sheetWriter) token(tok xml.Token) bool {
	switch t := tok.(type) {
	case xml.StartElement:
		switch t.Name.Local {
		case "row":
			w.emptyRow = true
		case "c":
			w.cellType, _ = attr(t, "t")
			w.hasValue = false
			w.value.Reset()
		case "v":
			w.inValue = true
			w.hasValue = true
		case "is":
			w.inInline = true
		case "t":
			if w.inInline {
				w.inValue = true
				w.hasValue = true
			}
		}
	case xml.CharData:
		if w.inValue {
			w.value.Write(t)
		}
	case xml.EndElement:
		switch t.Name.Local {
		case "v", "t":
			w.inValue = false
		case "is":
			w.inInline = false
		case "c":
			w.appendCell()
		case "row":
			if !w.emptyRow {
				w.buf.WriteNewline()
			}
		}
	}
	return !w.buf.Exhausted()
}

func (w *sheetWriter) appendCell() {
	if !w.hasValue {
		return
	}

	text := w.value.String()
	if w.cellType == "s" {
		id, err := strconv.Atoi(strings.TrimSpace(text))
		switch {
		case err != nil || id < 0 || id >= w.total:
			return
		case id >= len(w.sst):
			text = "_"
		default:
			text = w.sst[id]
		}
	}

	if !w.emptyRow {
		w.buf.WriteString(w.delimiter)
	}
	w.buf.WriteString(text)
	w.emptyRow = false
}
