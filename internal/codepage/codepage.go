// Package codepage converts the byte encodings found in Office binary
// formats to UTF-8.
package codepage

import (
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// UTF16LE decodes little-endian UTF-16. A trailing odd byte is dropped and
// unpaired surrogates become U+FFFD.
func UTF16LE(b []byte) (string, error) {
	if len(b)%2 != 0 {
		b = b[:len(b)-1]
	}
	return decode(utf16le, b)
}

// Windows1252 decodes the 8-bit text Word stores in compressed pieces.
func Windows1252(b []byte) (string, error) {
	return decode(charmap.Windows1252, b)
}

// Latin1 decodes ISO-8859-1, which is what PowerPoint's TextBytesAtom holds:
// the low byte of each UTF-16 code unit.
func Latin1(b []byte) (string, error) {
	return decode(charmap.ISO8859_1, b)
}

func decode(enc encoding.Encoding, b []byte) (string, error) {
	if len(b) == 0 {
		return "", nil
	}
	out, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
