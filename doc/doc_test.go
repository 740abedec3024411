package doc

import (
	"encoding/binary"
	"strings"
	"testing"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/asalih/go-officetext/internal/cfbtest"
	"github.com/asalih/go-officetext/internal/docerr"
	"github.com/asalih/go-officetext/mscfb"
)

type testPiece struct {
	text       string
	compressed bool
}

// buildDoc lays out a WordDocument stream holding pieces back to back from
// 0x400, and a table stream whose CLX starts with prc.
func buildDoc(flags2 byte, prc []byte, pieces ...testPiece) (wordDocument, table []byte) {
	le := binary.LittleEndian

	var body []byte
	var cps []uint32
	var fcs []uint32
	cp := uint32(0)
	for _, p := range pieces {
		offset := uint32(0x400 + len(body))
		cps = append(cps, cp)
		if p.compressed {
			fcs = append(fcs, fcCompressed|(offset*2))
			body = append(body, []byte(p.text)...)
			cp += uint32(len(p.text))
		} else {
			units := utf16.Encode([]rune(p.text))
			fcs = append(fcs, offset)
			for _, u := range units {
				body = le.AppendUint16(body, u)
			}
			cp += uint32(len(units))
		}
	}
	cps = append(cps, cp)

	wordDocument = make([]byte, 0x400+len(body))
	le.PutUint16(wordDocument[0:], fibIdent)
	wordDocument[offFlags2] = flags2
	copy(wordDocument[0x400:], body)

	table = append(table, prc...)
	table = append(table, clxPcdt)
	table = le.AppendUint32(table, uint32(4*len(cps)+pcdLen*len(pieces)))
	for _, c := range cps {
		table = le.AppendUint32(table, c)
	}
	for _, fc := range fcs {
		table = append(table, 0, 0)
		table = le.AppendUint32(table, fc)
		table = append(table, 0, 0)
	}

	le.PutUint32(wordDocument[offFcClx:], 0)
	le.PutUint32(wordDocument[offLcbClx:], uint32(len(table)))
	return wordDocument, table
}

func openDoc(t *testing.T, files ...cfbtest.File) *Document {
	t.Helper()
	buf, _ := cfbtest.Build(files...)
	cd, err := mscfb.Open(buf, mscfb.ValidationStrict)
	if err != nil {
		t.Fatalf("mscfb.Open() error = %v", err)
	}
	d, err := New(cd)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return d
}

func TestFetchText(t *testing.T) {
	tests := []struct {
		name     string
		flags2   byte
		table    string
		prc      []byte
		pieces   []testPiece
		maxChars int
		want     string
	}{
		{
			name:   "hello",
			flags2: 0x02,
			table:  Table1Stream,
			pieces: []testPiece{{text: "Hello"}},
			want:   "Hello",
		},
		{
			name:     "hello with budget",
			flags2:   0x02,
			table:    Table1Stream,
			pieces:   []testPiece{{text: "Hello"}},
			maxChars: 3,
			want:     "Hel",
		},
		{
			name:   "0Table",
			flags2: 0x00,
			table:  Table0Stream,
			pieces: []testPiece{{text: "zero"}},
			want:   "zero",
		},
		{
			name:   "mixed pieces",
			flags2: 0x02,
			table:  Table1Stream,
			pieces: []testPiece{{text: "Hello "}, {text: "W\xf6rld", compressed: true}},
			want:   "Hello Wörld",
		},
		{
			name:   "prc skipped",
			flags2: 0x02,
			table:  Table1Stream,
			prc:    []byte{clxPrc, 2, 0, 0xaa, 0xbb, clxPrc, 0, 0},
			pieces: []testPiece{{text: "styled"}},
			want:   "styled",
		},
		{
			name:   "control characters",
			flags2: 0x02,
			table:  Table1Stream,
			pieces: []testPiece{{text: "a\rb\x07c\x13d"}},
			want:   "a\nb c d",
		},
		{
			name:     "budget across pieces",
			flags2:   0x02,
			table:    Table1Stream,
			pieces:   []testPiece{{text: "ab"}, {text: "cdef", compressed: true}},
			maxChars: 4,
			want:     "abcd",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wordDocument, table := buildDoc(tt.flags2, tt.prc, tt.pieces...)
			d := openDoc(t,
				cfbtest.File{Name: WordDocumentStream, Data: wordDocument},
				cfbtest.File{Name: tt.table, Data: table},
			)
			got, err := d.FetchText(Options{MaxChars: tt.maxChars})
			if err != nil {
				t.Fatalf("FetchText() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("FetchText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFetchTextBudgetIsPrefix(t *testing.T) {
	wordDocument, table := buildDoc(0x02, nil, testPiece{text: "Grüße, "}, testPiece{text: "world", compressed: true})
	d := openDoc(t,
		cfbtest.File{Name: WordDocumentStream, Data: wordDocument},
		cfbtest.File{Name: Table1Stream, Data: table},
	)

	full, err := d.FetchText(Options{})
	if err != nil {
		t.Fatalf("FetchText() error = %v", err)
	}
	for k := 1; k <= utf8.RuneCountInString(full)+2; k++ {
		got, err := d.FetchText(Options{MaxChars: k})
		if err != nil {
			t.Fatalf("FetchText(%v) error = %v", k, err)
		}
		if n := utf8.RuneCountInString(got); n > k {
			t.Errorf("FetchText(%v) returned %v codepoints", k, n)
		}
		if !strings.HasPrefix(full, got) {
			t.Errorf("FetchText(%v) = %q, not a prefix of %q", k, got, full)
		}
	}
}

func TestFetchTextErrors(t *testing.T) {
	le := binary.LittleEndian

	tests := []struct {
		name            string
		mutate          func(wordDocument, table []byte) ([]byte, []byte)
		wantUnsupported bool
	}{
		{
			name: "encrypted",
			mutate: func(w, tb []byte) ([]byte, []byte) {
				w[offFlags2] |= 0x01
				return w, tb
			},
			wantUnsupported: true,
		},
		{
			name: "bad identifier",
			mutate: func(w, tb []byte) ([]byte, []byte) {
				le.PutUint16(w[0:], 0x1234)
				return w, tb
			},
		},
		{
			name: "short FIB",
			mutate: func(w, tb []byte) ([]byte, []byte) {
				return w[:0x100], tb
			},
		},
		{
			name: "lcbClx mismatch",
			mutate: func(w, tb []byte) ([]byte, []byte) {
				le.PutUint32(w[offLcbClx:], uint32(len(tb)-1))
				return w, tb
			},
		},
		{
			name: "clx past table",
			mutate: func(w, tb []byte) ([]byte, []byte) {
				le.PutUint32(w[offLcbClx:], uint32(len(tb)+10))
				return w, tb
			},
		},
		{
			name: "not a Pcdt",
			mutate: func(w, tb []byte) ([]byte, []byte) {
				tb[0] = 0x05
				return w, tb
			},
		},
		{
			name: "negative Prc size",
			mutate: func(w, tb []byte) ([]byte, []byte) {
				prc := []byte{clxPrc, 0xff, 0xff}
				tb = append(prc, tb...)
				le.PutUint32(w[offLcbClx:], uint32(len(tb)))
				return w, tb
			},
		},
		{
			name: "cp goes backwards",
			mutate: func(w, tb []byte) ([]byte, []byte) {
				le.PutUint32(tb[5:], 10)
				return w, tb
			},
		},
		{
			name: "piece outside stream",
			mutate: func(w, tb []byte) ([]byte, []byte) {
				le.PutUint32(tb[5+8+2:], 0x10000)
				return w, tb
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wordDocument, table := buildDoc(0x02, nil, testPiece{text: "Hello"})
			wordDocument, table = tt.mutate(wordDocument, table)
			d := openDoc(t,
				cfbtest.File{Name: WordDocumentStream, Data: wordDocument},
				cfbtest.File{Name: Table1Stream, Data: table},
			)

			got, err := d.FetchText(Options{})
			if err == nil {
				t.Fatalf("FetchText() = %q, want error", got)
			}
			if got != "" {
				t.Errorf("FetchText() = %q alongside error", got)
			}
			if tt.wantUnsupported && !docerr.IsUnsupported(err) {
				t.Errorf("FetchText() error = %v, want unsupported", err)
			}
			if !tt.wantUnsupported && !docerr.IsFormat(err) {
				t.Errorf("FetchText() error = %v, want format error", err)
			}
		})
	}
}

func TestMissingStreams(t *testing.T) {
	buf, _ := cfbtest.Build(cfbtest.File{Name: "Workbook", Data: []byte("x")})
	cd, err := mscfb.Open(buf, mscfb.ValidationPermissive)
	if err != nil {
		t.Fatalf("mscfb.Open() error = %v", err)
	}
	if _, err := New(cd); !docerr.IsUnsupported(err) {
		t.Errorf("New() error = %v, want unsupported", err)
	}

	wordDocument, table := buildDoc(0x02, nil, testPiece{text: "Hello"})
	d := openDoc(t,
		cfbtest.File{Name: WordDocumentStream, Data: wordDocument},
		cfbtest.File{Name: Table0Stream, Data: table},
	)
	if _, err := d.FetchText(Options{}); !docerr.IsFormat(err) {
		t.Errorf("FetchText() error = %v, want format error for missing 1Table", err)
	}
}
