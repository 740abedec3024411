package officetext

import (
	"bytes"

	"github.com/asalih/go-officetext/doc"
	"github.com/asalih/go-officetext/mscfb"
	"github.com/asalih/go-officetext/ooxml"
	"github.com/asalih/go-officetext/pdftext"
	"github.com/asalih/go-officetext/ppt"
	"github.com/asalih/go-officetext/xls"
)

// pdfSniffLen is how many non-NUL leading bytes may precede the PDF
// signature.
const pdfSniffLen = 128

var ooxmlTypes = map[string]DocumentType{
	ooxml.KindDOCX: TypeDOCX,
	ooxml.KindPPTX: TypePPTX,
	ooxml.KindXLSX: TypeXLSX,
}

var compoundStreams = map[string]DocumentType{
	doc.WordDocumentStream: TypeDOC,
	ppt.DocumentStream:     TypePPT,
	xls.WorkbookStream:     TypeXLS,
}

// Sniff guesses the type of data from its content. It returns TypeUnknown
// when data is not a document it can extract.
func Sniff(data []byte) DocumentType {
	if pdfOffset(data) >= 0 {
		return TypePDF
	}

	if ooxml.IsZip(data) {
		a, err := ooxml.Open(data, 0)
		if err != nil {
			return TypeUnknown
		}
		return ooxmlTypes[a.Detect()]
	}

	cd, err := mscfb.Open(data, mscfb.ValidationPermissive)
	if err != nil {
		return TypeUnknown
	}
	return sniffCompound(cd)
}

// pdfOffset returns where the PDF signature starts, or -1.
func pdfOffset(data []byte) int {
	start, _ := pdfWindow(data)
	return start
}

// pdfWindow looks for the PDF signature among the first pdfSniffLen
// non-NUL bytes of data, so NULs in front of or inside the signature do
// not hide it. It returns the offset of the signature's first byte (-1 if
// there is none) and the end of the scanned window.
func pdfWindow(data []byte) (start, end int) {
	window := make([]byte, 0, pdfSniffLen)
	index := make([]int, 0, pdfSniffLen)
	for ; end < len(data) && len(window) < pdfSniffLen; end++ {
		if data[end] == 0 {
			continue
		}
		window = append(window, data[end])
		index = append(index, end)
	}

	i := bytes.Index(window, []byte(pdftext.Signature))
	if i < 0 {
		return -1, end
	}
	return index[i], end
}

// pdfBody re-bases data at the PDF signature, dropping the NULs of the
// scanned window when there are any. Without a signature data is returned
// as is.
func pdfBody(data []byte) []byte {
	start, end := pdfWindow(data)
	if start < 0 {
		return data
	}

	head := bytes.ReplaceAll(data[start:end], []byte{0}, nil)
	if len(head) == end-start {
		return data[start:]
	}
	return append(head, data[end:]...)
}

// sniffCompound picks the type of the first directory entry that names a
// known document stream.
func sniffCompound(cd *mscfb.CompoundDocument) DocumentType {
	for _, entry := range cd.Entries() {
		if entry == nil || entry.ObjType == mscfb.ObjEmpty || entry.ObjType == mscfb.ObjUnknown {
			continue
		}
		if t, ok := compoundStreams[entry.Name]; ok {
			return t
		}
	}
	return TypeUnknown
}
