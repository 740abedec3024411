package officetext

import (
	"fmt"
	"strings"
)

// DocumentType names a container format. The zero value asks ExtractText
// to sniff the format from the data.
type DocumentType int

const (
	TypeUnknown DocumentType = iota
	TypePDF
	TypeDOC
	TypePPT
	TypeXLS
	TypeDOCX
	TypePPTX
	TypeXLSX
)

var typeNames = [...]string{
	TypeUnknown: "unknown",
	TypePDF:     "pdf",
	TypeDOC:     "doc",
	TypePPT:     "ppt",
	TypeXLS:     "xls",
	TypeDOCX:    "docx",
	TypePPTX:    "pptx",
	TypeXLSX:    "xlsx",
}

func (t DocumentType) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return fmt.Sprintf("DocumentType(%d)", int(t))
	}
	return typeNames[t]
}

// ParseDocumentType accepts a type name in any case, with or without a
// leading dot. "" and "auto" mean TypeUnknown.
func ParseDocumentType(s string) (DocumentType, error) {
	s = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))
	if s == "" || s == "auto" {
		return TypeUnknown, nil
	}
	for t, name := range typeNames {
		if name == s {
			return DocumentType(t), nil
		}
	}
	return TypeUnknown, fmt.Errorf("unknown document type %q", s)
}

func (t DocumentType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *DocumentType) UnmarshalText(text []byte) error {
	parsed, err := ParseDocumentType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
