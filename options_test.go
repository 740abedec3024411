package officetext

import (
	"reflect"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/asalih/go-officetext/mscfb"
)

func TestParseDocumentType(t *testing.T) {
	tests := []struct {
		in      string
		want    DocumentType
		wantErr bool
	}{
		{"", TypeUnknown, false},
		{"auto", TypeUnknown, false},
		{"DOC", TypeDOC, false},
		{".xlsx", TypeXLSX, false},
		{" pdf ", TypePDF, false},
		{"odt", TypeUnknown, true},
	}
	for _, tt := range tests {
		got, err := ParseDocumentType(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDocumentType(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseDocumentType(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDocumentTypeString(t *testing.T) {
	for typ := TypeUnknown; typ <= TypeXLSX; typ++ {
		got, err := ParseDocumentType(typ.String())
		if err != nil || got != typ {
			t.Errorf("ParseDocumentType(%q) = %v, %v, want %v", typ.String(), got, err, typ)
		}
	}
	if got, want := DocumentType(42).String(), "DocumentType(42)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestOptionsYAML(t *testing.T) {
	in := `
max_chars: 4096
max_pdf_pages: 3
delimiter: "\t"
keep_blank_cells: true
include_drawings: false
type: xls
validation: strict
`
	got := DefaultOptions()
	if err := yaml.Unmarshal([]byte(in), &got); err != nil {
		t.Fatalf("yaml.Unmarshal() error = %v", err)
	}

	want := DefaultOptions()
	want.MaxChars = 4096
	want.MaxPDFPages = 3
	want.Delimiter = "\t"
	want.KeepBlankCells = true
	want.IncludeDrawings = false
	want.Type = TypeXLS
	want.Validation = mscfb.ValidationStrict
	if !reflect.DeepEqual(got, want) {
		t.Errorf("yaml.Unmarshal() = %+v, want %+v", got, want)
	}

	if err := yaml.Unmarshal([]byte("type: odt"), &got); err == nil {
		t.Errorf("yaml.Unmarshal(type: odt) error = nil, want error")
	}
}

func TestWithDefaults(t *testing.T) {
	got := Options{MaxChars: 7}.withDefaults()
	if got.MaxSST != 0xFFFF || got.Delimiter != "," || got.XMLMaxFileLen != 1<<20 || got.Logger == nil {
		t.Errorf("withDefaults() = %+v", got)
	}
	if got.MaxChars != 7 || got.IncludeDrawings {
		t.Errorf("withDefaults() changed set fields: %+v", got)
	}
}
