package ooxml

import (
	"encoding/xml"

	"github.com/asalih/go-officetext/internal/textbuf"
)

// FetchDOCX returns the body text of word/document.xml, one line per
// paragraph that carries text.
func (a *Archive) FetchDOCX(opts Options) (string, error) {
	buf := textbuf.New(opts.MaxChars)

	var inText, inTabs, hasText bool
	err := a.decode(DocumentPart, func(tok xml.Token) bool {
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				hasText = false
			case "t":
				inText = true
			case "tabs":
				inTabs = true
			case "tab":
				// w:tab under w:tabs is a tab stop, not content
				if !inTabs {
					buf.WriteString(" ")
				}
			case "br", "cr":
				buf.WriteNewline()
			}
		case xml.CharData:
			if inText && buf.WriteString(string(t)) > 0 {
				hasText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "tabs":
				inTabs = false
			case "p":
				if hasText {
					buf.WriteNewline()
				}
				hasText = false
			}
		}
		return !buf.Exhausted()
	})
	if err != nil {
		return "", err
	}

	return textbuf.Sanitize(buf.String()), nil
}
