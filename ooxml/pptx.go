package ooxml

import (
	"encoding/xml"
	"fmt"

	"github.com/asalih/go-officetext/internal/textbuf"
)

func slidePart(n int) string {
	return fmt.Sprintf("ppt/slides/slide%d.xml", n)
}

// FetchPPTX returns the text of ppt/slides/slide1.xml, slide2.xml and so
// on, stopping at the first missing slide.
func (a *Archive) FetchPPTX(opts Options) (string, error) {
	buf := textbuf.New(opts.MaxChars)

	for n := 1; a.HasFile(slidePart(n)) && !buf.Exhausted(); n++ {
		if err := a.fetchSlide(slidePart(n), buf); err != nil {
			return "", err
		}
	}

	return textbuf.Sanitize(buf.String()), nil
}

func (a *Archive) fetchSlide(name string, buf *textbuf.Buffer) error {
	var inText, hasText bool
	return a.decode(name, func(tok xml.Token) bool {
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				hasText = false
			case "t":
				inText = true
			case "br":
				buf.WriteNewline()
				hasText = true
			}
		case xml.CharData:
			if inText && buf.WriteString(string(t)) > 0 {
				hasText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if hasText {
					buf.WriteNewline()
				}
				hasText = false
			}
		}
		return !buf.Exhausted()
	})
}
