package ooxml

import (
	"archive/zip"
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/asalih/go-officetext/internal/docerr"
)

type part struct {
	name string
	body string
}

func buildZip(t *testing.T, parts ...part) []byte {
	t.Helper()

	var b bytes.Buffer
	zw := zip.NewWriter(&b)
	for _, p := range parts {
		w, err := zw.Create(p.name)
		if err != nil {
			t.Fatalf("Create(%q) error = %v", p.name, err)
		}
		if _, err := w.Write([]byte(p.body)); err != nil {
			t.Fatalf("Write(%q) error = %v", p.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return b.Bytes()
}

func openZip(t *testing.T, maxFileLen int64, parts ...part) *Archive {
	t.Helper()

	a, err := Open(buildZip(t, parts...), maxFileLen)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return a
}

const wordNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

const documentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document ` + wordNS + `><w:body>
<w:p><w:pPr><w:tabs><w:tab w:val="left" w:pos="720"/></w:tabs></w:pPr><w:r><w:t>Hello</w:t></w:r><w:r><w:t xml:space="preserve"> world</w:t></w:r></w:p>
<w:p></w:p>
<w:p><w:r><w:t>a</w:t><w:tab/><w:t>b</w:t><w:br/><w:t>c &amp; d</w:t></w:r></w:p>
</w:body></w:document>`

const drawingNS = `xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"`

func slideXML(paragraphs string) string {
	return `<?xml version="1.0" encoding="UTF-8"?><p:sld ` + drawingNS + `><p:cSld><p:spTree><p:sp><p:txBody>` +
		paragraphs + `</p:txBody></p:sp></p:spTree></p:cSld></p:sld>`
}

const workbookXML = `<?xml version="1.0" encoding="UTF-8"?>
<workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
<sheets>
<sheet name="First" sheetId="1" r:id="rId1"/>
<sheet name="Hidden" sheetId="2" state="hidden" r:id="rId2"/>
<sheet name="Third" sheetId="3" state="visible" r:id="rId3"/>
</sheets>
</workbook>`

const workbookRels = `<?xml version="1.0" encoding="UTF-8"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="worksheet" Target="worksheets/sheet1.xml"/>
<Relationship Id="rId2" Type="worksheet" Target="worksheets/sheet2.xml"/>
<Relationship Id="rId3" Type="worksheet" Target="/xl/worksheets/data.xml"/>
</Relationships>`

const sharedStringsXML = `<?xml version="1.0" encoding="UTF-8"?>
<sst xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" count="3" uniqueCount="3">
<si><t>Name</t></si>
<si><r><t>Ri</t></r><r><t>ch</t></r><rPh sb="0" eb="1"><t>skip</t></rPh></si>
<si><t>Alice</t></si>
</sst>`

func sheetXML(rows string) string {
	return `<?xml version="1.0" encoding="UTF-8"?><worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><sheetData>` +
		rows + `</sheetData></worksheet>`
}

func xlsxParts() []part {
	return []part{
		{WorkbookPart, workbookXML},
		{WorkbookRelsPart, workbookRels},
		{SharedStringsPart, sharedStringsXML},
		{"xl/worksheets/sheet1.xml", sheetXML(
			`<row r="1"><c r="A1" t="s"><v>0</v></c><c r="B1" t="s"><v>1</v></c></row>` +
				`<row r="2"/>` +
				`<row r="3"><c r="A3" t="s"><v>2</v></c><c r="B3"><v>42</v></c><c r="C3" t="s"><v>9</v></c><c r="D3"/></row>` +
				`<row r="4"><c r="A4"/></row>`)},
		{"xl/worksheets/sheet2.xml", sheetXML(`<row r="1"><c r="A1"><v>secret</v></c></row>`)},
		{"xl/worksheets/data.xml", sheetXML(
			`<row r="1"><c r="A1" t="inlineStr"><is><t>inline</t></is></c><c r="B1" t="str"><f>A1</f><v>calc</v></c></row>`)},
	}
}

func TestOpen(t *testing.T) {
	if _, err := Open([]byte("not a zip archive at all"), 0); !errors.Is(err, docerr.ErrorFormat) {
		t.Errorf("Open(text) error = %v, want %v", err, docerr.ErrorFormat)
	}

	data := buildZip(t, part{DocumentPart, documentXML})
	if _, err := Open(data[:40], 0); !errors.Is(err, docerr.ErrorFormat) {
		t.Errorf("Open(truncated) error = %v, want %v", err, docerr.ErrorFormat)
	}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name  string
		parts []part
		want  string
	}{
		{"docx", []part{{"[Content_Types].xml", "<Types/>"}, {DocumentPart, documentXML}}, KindDOCX},
		{"pptx", []part{{PresentationPart, "<p/>"}}, KindPPTX},
		{"xlsx", []part{{WorkbookPart, workbookXML}}, KindXLSX},
		{"other", []part{{"mimetype", "application/epub+zip"}}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := openZip(t, 0, tt.parts...)
			if got := a.Detect(); got != tt.want {
				t.Errorf("Detect() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReadFile(t *testing.T) {
	a := openZip(t, 4, part{"a.txt", "0123456789"}, part{"b.txt", "ab"})

	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{"a.txt", "0123", false},
		{"b.txt", "ab", false},
		{"c.txt", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := a.ReadFile(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ReadFile() error = %v, wantErr %v", err, tt.wantErr)
			}
			if string(got) != tt.want {
				t.Errorf("ReadFile() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFetchDOCX(t *testing.T) {
	tests := []struct {
		name     string
		maxChars int
		want     string
	}{
		{"all", 0, "Hello world\na b\nc & d\n"},
		{"budget", 8, "Hello wo"},
		{"budget at paragraph end", 12, "Hello world\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := openZip(t, 0, part{DocumentPart, documentXML})
			got, err := a.FetchDOCX(Options{MaxChars: tt.maxChars})
			if err != nil {
				t.Fatalf("FetchDOCX() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("FetchDOCX() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFetchDOCXErrors(t *testing.T) {
	tests := []struct {
		name  string
		parts []part
	}{
		{"missing document", []part{{"word/other.xml", "<x/>"}}},
		{"bad xml", []part{{DocumentPart, `<w:document ` + wordNS + `><w:body><w:p></w:body>`}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := openZip(t, 0, tt.parts...)
			got, err := a.FetchDOCX(Options{})
			if !errors.Is(err, docerr.ErrorFormat) {
				t.Errorf("FetchDOCX() error = %v, want %v", err, docerr.ErrorFormat)
			}
			if got != "" {
				t.Errorf("FetchDOCX() = %q, want empty", got)
			}
		})
	}
}

func TestFetchDOCXTruncatedPart(t *testing.T) {
	a := openZip(t, int64(strings.Index(documentXML, "<w:p></w:p>")), part{DocumentPart, documentXML})
	got, err := a.FetchDOCX(Options{})
	if err != nil {
		t.Fatalf("FetchDOCX() error = %v", err)
	}
	if want := "Hello world\n"; got != want {
		t.Errorf("FetchDOCX() = %q, want %q", got, want)
	}
}

func TestFetchPPTX(t *testing.T) {
	parts := []part{
		{PresentationPart, "<p:presentation/>"},
		{slidePart(1), slideXML(`<a:p><a:r><a:t>Title</a:t></a:r></a:p><a:p></a:p><a:p><a:r><a:t>line</a:t></a:r><a:br/><a:r><a:t>two</a:t></a:r></a:p>`)},
		{slidePart(2), slideXML(`<a:p><a:fld type="slidenum"><a:t>2</a:t></a:fld></a:p>`)},
		{slidePart(4), slideXML(`<a:p><a:r><a:t>unreachable</a:t></a:r></a:p>`)},
	}

	tests := []struct {
		name     string
		maxChars int
		want     string
	}{
		{"all", 0, "Title\nline\ntwo\n2\n"},
		{"budget", 7, "Title\nl"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := openZip(t, 0, parts...)
			got, err := a.FetchPPTX(Options{MaxChars: tt.maxChars})
			if err != nil {
				t.Fatalf("FetchPPTX() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("FetchPPTX() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSharedStrings(t *testing.T) {
	a := openZip(t, 0, xlsxParts()...)
	tests := []struct {
		max  int
		want []string
	}{
		{0, []string{"Name", "Rich", "Alice"}},
		{3, []string{"Name", "Rich", "Alice"}},
		{2, []string{"Name", "Rich"}},
	}
	for _, tt := range tests {
		got, total, err := a.SharedStrings(tt.max)
		if err != nil {
			t.Fatalf("SharedStrings(%v) error = %v", tt.max, err)
		}
		if !reflect.DeepEqual(got, tt.want) || total != 3 {
			t.Errorf("SharedStrings(%v) = %v, %v, want %v, 3", tt.max, got, total, tt.want)
		}
	}
}

func TestSheets(t *testing.T) {
	a := openZip(t, 0, xlsxParts()...)
	got, err := a.Sheets()
	if err != nil {
		t.Fatalf("Sheets() error = %v", err)
	}
	want := []Sheet{
		{Name: "First", SheetID: "1", RelID: "rId1"},
		{Name: "Hidden", SheetID: "2", RelID: "rId2", State: "hidden"},
		{Name: "Third", SheetID: "3", RelID: "rId3", State: "visible"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Sheets() = %+v, want %+v", got, want)
	}
}

func TestFetchXLSX(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want string
	}{
		{"default", Options{}, "First\nName,Rich\nAlice,42\nThird\ninline,calc\n"},
		{"delimiter", Options{Delimiter: "\t"}, "First\nName\tRich\nAlice\t42\nThird\ninline\tcalc\n"},
		{"budget", Options{MaxChars: 10}, "First\nName"},
		{"shared string cap", Options{MaxSST: 2}, "First\nName,Rich\n_,42\nThird\ninline,calc\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := openZip(t, 0, xlsxParts()...)
			got, err := a.FetchXLSX(tt.opts)
			if err != nil {
				t.Fatalf("FetchXLSX() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("FetchXLSX() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFetchXLSXWithoutRels(t *testing.T) {
	a := openZip(t, 0,
		part{WorkbookPart, `<workbook><sheets><sheet name="S" sheetId="7"/></sheets></workbook>`},
		part{"xl/worksheets/sheet7.xml", sheetXML(`<row><c><v>1</v></c><c><v>2</v></c></row>`)},
	)
	got, err := a.FetchXLSX(Options{})
	if err != nil {
		t.Fatalf("FetchXLSX() error = %v", err)
	}
	if want := "S\n1,2\n"; got != want {
		t.Errorf("FetchXLSX() = %q, want %q", got, want)
	}
}

func TestFetchXLSXMissingWorkbook(t *testing.T) {
	a := openZip(t, 0, part{SharedStringsPart, sharedStringsXML})
	if _, err := a.FetchXLSX(Options{}); !errors.Is(err, docerr.ErrorFormat) {
		t.Errorf("FetchXLSX() error = %v, want %v", err, docerr.ErrorFormat)
	}
}
