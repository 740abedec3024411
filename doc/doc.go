// Package doc extracts the main text of Word 97-2003 binary documents.
//
// Text is reassembled from the piece table in the CLX structure of the
// table stream. Each piece is either UTF-16LE or, when compressed,
// Windows-1252 bytes stored at half the recorded offset.
package doc

import (
	"github.com/asalih/go-officetext/internal/codepage"
	"github.com/asalih/go-officetext/internal/docerr"
	"github.com/asalih/go-officetext/internal/textbuf"
	"github.com/asalih/go-officetext/mscfb"
)

const (
	WordDocumentStream = "WordDocument"
	Table0Stream       = "0Table"
	Table1Stream       = "1Table"
)

type Options struct {
	MaxChars int
}

type Document struct {
	cd *mscfb.CompoundDocument

	wordDocument *mscfb.DirEntry
	tables       [2]*mscfb.DirEntry
}

// New locates the WordDocument stream and both table streams. Where a name
// appears more than once the largest entry is used.
func New(cd *mscfb.CompoundDocument) (*Document, error) {
	wordDocument := cd.FindEntry(WordDocumentStream)
	if wordDocument == nil {
		return nil, docerr.Unsupportedf("no %s stream", WordDocumentStream)
	}

	return &Document{
		cd:           cd,
		wordDocument: wordDocument,
		tables:       [2]*mscfb.DirEntry{cd.FindEntry(Table0Stream), cd.FindEntry(Table1Stream)},
	}, nil
}

// FetchText returns the document text, cut to opts.MaxChars codepoints.
func (d *Document) FetchText(opts Options) (string, error) {
	wordDocument, err := d.cd.ReadStream(d.wordDocument)
	if err != nil {
		return "", err
	}

	fib, err := ReadFib(wordDocument)
	if err != nil {
		return "", err
	}

	tableEntry := d.tables[fib.WhichTable]
	if tableEntry == nil {
		return "", docerr.Formatf("no %s stream", fib.TableName())
	}
	table, err := d.cd.ReadStream(tableEntry)
	if err != nil {
		return "", err
	}

	pieces, err := ParseClx(table, fib.FcClx, fib.LcbClx)
	if err != nil {
		return "", err
	}

	buf := textbuf.New(opts.MaxChars)
	for _, piece := range pieces {
		if buf.Exhausted() {
			break
		}
		text, err := readPiece(wordDocument, piece, buf.Remaining())
		if err != nil {
			return "", err
		}
		buf.WriteString(text)
	}

	return textbuf.Sanitize(buf.String()), nil
}

// readPiece decodes at most limit characters of a piece.
func readPiece(wordDocument []byte, piece Piece, limit int) (string, error) {
	if piece.CpEnd < piece.CpStart {
		return "", docerr.Formatf("piece ends at cp %v before it starts at %v", piece.CpEnd, piece.CpStart)
	}

	n := uint64(piece.CpEnd - piece.CpStart)
	if n > uint64(limit) {
		n = uint64(limit)
	}

	if piece.Compressed {
		offset := uint64(piece.Offset / 2)
		if offset+n > uint64(len(wordDocument)) {
			return "", docerr.Formatf("compressed piece [%v, %v) is outside WordDocument", offset, offset+n)
		}
		return codepage.Windows1252(wordDocument[offset : offset+n])
	}

	offset := uint64(piece.Offset)
	if offset+2*n > uint64(len(wordDocument)) {
		return "", docerr.Formatf("piece [%v, %v) is outside WordDocument", offset, offset+2*n)
	}
	return codepage.UTF16LE(wordDocument[offset : offset+2*n])
}
