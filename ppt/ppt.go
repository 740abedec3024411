// Package ppt extracts slide text from PowerPoint 97-2003 presentations.
//
// The "Current User" stream points at the latest UserEditAtom in the
// "PowerPoint Document" stream. Walking the edit chain yields the persist
// directory, which maps object ids to record offsets. Text atoms are then
// collected from the document and slide containers in id order.
package ppt

import (
	"sort"

	"github.com/asalih/go-officetext/internal/codepage"
	"github.com/asalih/go-officetext/internal/docerr"
	"github.com/asalih/go-officetext/internal/textbuf"
	"github.com/asalih/go-officetext/mscfb"
)

const (
	CurrentUserStream = "Current User"
	DocumentStream    = "PowerPoint Document"

	maxDepth = 64
)

type Options struct {
	MaxChars int
	// IncludeDrawings descends into drawing containers, where text boxes
	// and shapes keep their text.
	IncludeDrawings bool
}

type Presentation struct {
	cd *mscfb.CompoundDocument

	currentUser *mscfb.DirEntry
	document    *mscfb.DirEntry
}

func New(cd *mscfb.CompoundDocument) (*Presentation, error) {
	document := cd.FindEntry(DocumentStream)
	if document == nil {
		return nil, docerr.Unsupportedf("no %s stream", DocumentStream)
	}
	currentUser := cd.FindEntry(CurrentUserStream)
	if currentUser == nil {
		return nil, docerr.Formatf("no %s stream", CurrentUserStream)
	}

	return &Presentation{
		cd:          cd,
		currentUser: currentUser,
		document:    document,
	}, nil
}

func (p *Presentation) FetchText(opts Options) (string, error) {
	currentUser, err := p.cd.ReadStream(p.currentUser)
	if err != nil {
		return "", err
	}
	cua, err := ParseCurrentUserAtom(currentUser)
	if err != nil {
		return "", err
	}
	if cua.Encrypted() {
		return "", docerr.Unsupportedf("presentation is encrypted")
	}

	stream, err := p.cd.ReadStream(p.document)
	if err != nil {
		return "", err
	}

	id2offset, err := ResolvePersistDirectory(cua, stream)
	if err != nil {
		return "", err
	}

	ids := make([]uint32, 0, len(id2offset))
	for id := range id2offset {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	w := walker{buf: textbuf.New(opts.MaxChars), drawings: opts.IncludeDrawings}
	for _, id := range ids {
		offset := uint64(id2offset[id])
		rh, err := ReadRecordHeader(stream, offset)
		if err != nil {
			return "", err
		}
		if rh.RecType != RT_Document && rh.RecType != RT_Slide {
			continue
		}

		body, err := rh.body(stream, offset)
		if err != nil {
			return "", err
		}
		if err := w.walk(body, 0); err != nil {
			return "", err
		}
		if w.buf.Exhausted() {
			break
		}
	}

	return textbuf.Sanitize(w.buf.String()), nil
}

type walker struct {
	buf      *textbuf.Buffer
	drawings bool
}

func (w *walker) container(recType uint16) bool {
	switch recType {
	case RT_SlideListWithText:
		return true
	case RT_Drawing, RT_OfficeArtDg, RT_OfficeArtSpgrContainer,
		RT_OfficeArtSpContainer, RT_OfficeArtClientTextbox:
		return w.drawings
	}
	return false
}

// walk appends the text atoms found in the records of data.
func (w *walker) walk(data []byte, depth int) error {
	if depth > maxDepth {
		return docerr.Formatf("records nested deeper than %v", maxDepth)
	}

	for pos := uint64(0); pos < uint64(len(data)) && !w.buf.Exhausted(); {
		rh, err := ReadRecordHeader(data, pos)
		if err != nil {
			return err
		}
		body, err := rh.body(data, pos)
		if err != nil {
			return err
		}

		handled := true
		switch {
		case w.container(rh.RecType):
			err = w.walk(body, depth+1)
		case rh.RecType == RT_TextCharsAtom:
			err = w.textChars(body)
		case rh.RecType == RT_TextBytesAtom:
			err = w.textBytes(body)
		default:
			handled = false
		}
		if err != nil {
			return err
		}

		if handled && !w.buf.Exhausted() && w.buf.Len() > 0 && !w.buf.EndsWithNewline() {
			w.buf.WriteNewline()
		}

		pos += recordHeaderLen + uint64(rh.RecLen)
	}

	return nil
}

func (w *walker) textChars(body []byte) error {
	n := uint64(len(body) / 2)
	if limit := uint64(w.buf.Remaining()); n > limit {
		n = limit
	}
	s, err := codepage.UTF16LE(body[:2*n])
	if err != nil {
		return docerr.Formatf("TextCharsAtom: %v", err)
	}
	w.buf.WriteString(s)
	return nil
}

func (w *walker) textBytes(body []byte) error {
	n := uint64(len(body))
	if limit := uint64(w.buf.Remaining()); n > limit {
		n = limit
	}
	s, err := codepage.Latin1(body[:n])
	if err != nil {
		return docerr.Formatf("TextBytesAtom: %v", err)
	}
	w.buf.WriteString(s)
	return nil
}
