package xls

import (
	"encoding/binary"
	"math"
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/asalih/go-officetext/internal/cfbtest"
	"github.com/asalih/go-officetext/internal/docerr"
	"github.com/asalih/go-officetext/mscfb"
)

var le = binary.LittleEndian

func rec(id uint16, parts ...[]byte) []byte {
	var body []byte
	for _, p := range parts {
		body = append(body, p...)
	}
	out := le.AppendUint16(nil, id)
	out = le.AppendUint16(out, uint16(len(body)))
	return append(out, body...)
}

func u16(v uint16) []byte { return le.AppendUint16(nil, v) }
func u32(v uint32) []byte { return le.AppendUint32(nil, v) }

func bof(dt uint16) []byte {
	return rec(RecordBOF, u16(bofVersionBIFF8), u16(dt), make([]byte, 12))
}

func eof() []byte { return rec(RecordEOF) }

// sstRecord holds compressed strings in a single SST record.
func sstRecord(strs ...string) []byte {
	body := append(u32(uint32(len(strs))), u32(uint32(len(strs)))...)
	for _, s := range strs {
		body = append(body, u16(uint16(len(s)))...)
		body = append(body, 0)
		body = append(body, s...)
	}
	return rec(RecordSST, body)
}

func cell(row, col uint16) []byte {
	return append(append(u16(row), u16(col)...), u16(15)...)
}

func labelSst(row, col uint16, isst uint32) []byte {
	return rec(RecordLabelSst, cell(row, col), u32(isst))
}

func rk(row, col uint16, raw uint32) []byte {
	return rec(RecordRK, cell(row, col), u32(raw))
}

func number(row, col uint16, f float64) []byte {
	return rec(RecordNumber, cell(row, col), le.AppendUint64(nil, math.Float64bits(f)))
}

func blank(row, col uint16) []byte {
	return rec(RecordBlank, cell(row, col))
}

func mulRk(row, colFirst uint16, raws ...uint32) []byte {
	body := append(u16(row), u16(colFirst)...)
	for _, raw := range raws {
		body = append(body, u16(15)...)
		body = append(body, u32(raw)...)
	}
	body = append(body, u16(colFirst+uint16(len(raws))-1)...)
	return rec(RecordMulRk, body)
}

func mulBlank(row, colFirst, colLast uint16) []byte {
	body := append(u16(row), u16(colFirst)...)
	for c := colFirst; c <= colLast; c++ {
		body = append(body, u16(15)...)
	}
	body = append(body, u16(colLast)...)
	return rec(RecordMulBlank, body)
}

func rkInt(v int32) uint32 { return uint32(v)<<2 | 0x02 }

func rkInt100(v int32) uint32 { return uint32(v)<<2 | 0x03 }

func rkFloat(f float64) uint32 { return uint32(math.Float64bits(f) >> 32) }

type testSheet struct {
	name    string
	state   uint8
	dt      uint8
	records [][]byte
}

// buildWorkbook lays out the globals substream followed by one substream
// per sheet and fixes up the BoundSheet8 positions.
func buildWorkbook(globals [][]byte, sheets ...testSheet) []byte {
	stream := bof(0x0005)
	for _, g := range globals {
		stream = append(stream, g...)
	}

	posFields := make([]int, len(sheets))
	for i, s := range sheets {
		posFields[i] = len(stream) + recordHeaderLen
		body := append(u32(0), s.state, s.dt, uint8(len(s.name)), 0)
		stream = append(stream, rec(RecordBoundSheet8, body, []byte(s.name))...)
	}
	stream = append(stream, eof()...)

	for i, s := range sheets {
		le.PutUint32(stream[posFields[i]:], uint32(len(stream)))
		stream = append(stream, bof(0x0010)...)
		for _, r := range s.records {
			stream = append(stream, r...)
		}
	}
	return stream
}

func openWorkbook(t *testing.T, stream []byte) *Workbook {
	t.Helper()
	buf, _ := cfbtest.Build(cfbtest.File{Name: WorkbookStream, Data: stream})
	cd, err := mscfb.Open(buf, mscfb.ValidationStrict)
	if err != nil {
		t.Fatalf("mscfb.Open() error = %v", err)
	}
	w, err := New(cd)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return w
}

func TestRKValue(t *testing.T) {
	tests := []struct {
		name string
		raw  uint32
		want float64
	}{
		{name: "integer", raw: rkInt(42), want: 42},
		{name: "integer x100", raw: rkInt100(4200), want: 42},
		{name: "negative integer", raw: rkInt(-7), want: -7},
		{name: "float", raw: rkFloat(1.5), want: 1.5},
		{name: "float x100", raw: rkFloat(1234) | 0x01, want: 12.34},
		{name: "zero", raw: 0, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RKValue(tt.raw); got != tt.want {
				t.Errorf("RKValue(0x%08X) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestReadSST(t *testing.T) {
	tests := []struct {
		name   string
		stream []byte
		maxSST int
		want   []string
		// wantNext is where the caller resumes, relative to the SST body.
		wantNext int
	}{
		{
			name:     "single record",
			stream:   sstRecord("alpha", "beta", "caf\xe9"),
			maxSST:   DefaultMaxSST,
			want:     []string{"alpha", "beta", "caf "},
			wantNext: 8 + 3*3 + 5 + 4 + 4,
		},
		{
			name: "characters continue with a wider encoding",
			stream: append(
				rec(RecordSST, u32(2), u32(2), u16(5), []byte{0}, []byte("Hel")),
				rec(RecordContinue, []byte{strHighByte}, u16('l'), u16('o'), u16(3), []byte{0}, []byte("abc"))...,
			),
			maxSST:   DefaultMaxSST,
			want:     []string{"Hello", "abc"},
			wantNext: 8 + 6 + 4 + 1 + 4 + 6,
		},
		{
			name: "string starts in a Continue",
			stream: append(
				rec(RecordSST, u32(2), u32(2), u16(2), []byte{0}, []byte("ab")),
				rec(RecordContinue, u16(2), []byte{strHighByte}, u16('c'), u16('d'))...,
			),
			maxSST:   DefaultMaxSST,
			want:     []string{"ab", "cd"},
			wantNext: 8 + 5 + 4 + 7,
		},
		{
			name: "rich runs cross a Continue",
			stream: append(
				rec(RecordSST, u32(2), u32(2), u16(2), []byte{strRichSt}, u16(2), []byte("ab"), []byte{1, 2, 3}),
				rec(RecordContinue, []byte{4, 5, 6, 7, 8}, u16(1), []byte{0}, []byte("z"))...,
			),
			maxSST:   DefaultMaxSST,
			want:     []string{"ab", "z"},
			wantNext: 8 + 2 + 1 + 2 + 2 + 3 + 4 + 5 + 4,
		},
		{
			name: "capped",
			stream: append(
				rec(RecordSST, u32(2), u32(2), u16(5), []byte{0}, []byte("Hel")),
				rec(RecordContinue, []byte{0}, []byte("lo"), u16(3), []byte{0}, []byte("abc"))...,
			),
			maxSST:   1,
			want:     []string{"Hello"},
			wantNext: 8 + 6 + 4 + 1 + 2 + 6,
		},
		{
			name:     "ext and rich",
			stream:   rec(RecordSST, u32(1), u32(1), u16(1), []byte{strRichSt | strExtSt}, u16(1), u32(3), []byte("q"), make([]byte, 4+3)),
			maxSST:   DefaultMaxSST,
			want:     []string{"q"},
			wantNext: 8 + 3 + 2 + 4 + 1 + 7,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			size := int(le.Uint16(tt.stream[2:]))
			got, next, err := readSST(tt.stream[recordHeaderLen:], size, tt.maxSST)
			if err != nil {
				t.Fatalf("readSST() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("readSST() = %q, want %q", got, tt.want)
			}
			if next != tt.wantNext {
				t.Errorf("readSST() next = %v, want %v", next, tt.wantNext)
			}
		})
	}
}

func TestReadSSTErrors(t *testing.T) {
	tests := []struct {
		name   string
		stream []byte
	}{
		{name: "negative count", stream: rec(RecordSST, u32(1), u32(0xffffffff))},
		{name: "short", stream: rec(RecordSST, u32(1))},
		{name: "missing Continue", stream: append(rec(RecordSST, u32(1), u32(1), u16(4), []byte{0}, []byte("ab")), eof()...)},
		{name: "truncated Continue", stream: append(rec(RecordSST, u32(1), u32(1), u16(4), []byte{0}, []byte("ab")), u16(RecordContinue)...)},
		{name: "second string needs Continue", stream: rec(RecordSST, u32(2), u32(2), u16(1), []byte{0}, []byte("a"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			size := int(le.Uint16(tt.stream[2:]))
			if _, _, err := readSST(tt.stream[recordHeaderLen:], size, DefaultMaxSST); !docerr.IsFormat(err) {
				t.Errorf("readSST() error = %v, want format error", err)
			}
		})
	}
}

func TestParseGlobals(t *testing.T) {
	stream := buildWorkbook(
		[][]byte{rec(0x0042, u16(1252)), sstRecord("x", "y")},
		testSheet{name: "One", records: [][]byte{eof()}},
		testSheet{name: "Chart", dt: SheetChart, records: [][]byte{eof()}},
		testSheet{name: "Hidden", state: SheetHidden, records: [][]byte{eof()}},
	)

	g, err := ParseGlobals(stream, 0)
	if err != nil {
		t.Fatalf("ParseGlobals() error = %v", err)
	}
	if !reflect.DeepEqual(g.SST, []string{"x", "y"}) {
		t.Errorf("ParseGlobals() SST = %q", g.SST)
	}

	var names []string
	var visible []bool
	for _, s := range g.Sheets {
		names = append(names, s.Name)
		visible = append(visible, s.Visible())
	}
	if !reflect.DeepEqual(names, []string{"One", "Chart", "Hidden"}) {
		t.Errorf("ParseGlobals() sheets = %q", names)
	}
	if !reflect.DeepEqual(visible, []bool{true, false, false}) {
		t.Errorf("Visible() = %v", visible)
	}
}

func TestFetchText(t *testing.T) {
	data := testSheet{
		name: "Data",
		records: [][]byte{
			rec(0x0200, make([]byte, 14)), // Dimensions
			labelSst(0, 0, 0),
			rk(0, 1, rkInt(42)),
			number(1, 0, 3.5),
			mulRk(1, 1, rkInt100(4200), rkFloat(1.5)),
			blank(2, 0),
			labelSst(2, 1, 99),
			number(3, 0, 12.25),
			mulBlank(3, 1, 3),
			eof(),
		},
	}
	second := testSheet{
		name:    "More",
		records: [][]byte{labelSst(0, 0, 1), eof()},
	}
	hidden := testSheet{
		name:    "Secret",
		state:   SheetHidden,
		records: [][]byte{labelSst(0, 0, 1), eof()},
	}
	stream := buildWorkbook([][]byte{sstRecord("Hello", "World")}, data, hidden, second)

	tests := []struct {
		name string
		opts Options
		want string
	}{
		{
			name: "defaults",
			opts: Options{},
			want: "Data\nHello,42.00\n3.500000,42.00,1.50\n,_\n12.25\nMore\nWorld\n",
		},
		{
			name: "blank cells",
			opts: Options{KeepBlankCells: true},
			want: "Data\nHello,42.00\n3.500000,42.00,1.50\n ,_\n12.25, , \nMore\nWorld\n",
		},
		{
			name: "delimiter",
			opts: Options{Delimiter: "\t|"},
			want: "Data\nHello |42.00\n3.500000 |42.00 |1.50\n |_\n12.25\nMore\nWorld\n",
		},
		{
			name: "sst cap",
			opts: Options{MaxSST: 1},
			want: "Data\nHello,42.00\n3.500000,42.00,1.50\n,_\n12.25\nMore\n_\n",
		},
		{
			name: "budget inside sheet name",
			opts: Options{MaxChars: 2},
			want: "Da",
		},
		{
			name: "budget at sheet newline",
			opts: Options{MaxChars: 5},
			want: "Data\n",
		},
		{
			name: "budget inside cell",
			opts: Options{MaxChars: 8},
			want: "Data\nHel",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := openWorkbook(t, stream)
			got, err := w.FetchText(tt.opts)
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
	stream := buildWorkbook(
		[][]byte{sstRecord("Green", "x")},
		testSheet{name: "S", records: [][]byte{labelSst(0, 0, 0), labelSst(0, 1, 1), rk(1, 0, rkInt(5)), eof()}},
	)
	w := openWorkbook(t, stream)

	full, err := w.FetchText(Options{})
	if err != nil {
		t.Fatalf("FetchText() error = %v", err)
	}
	for k := 1; k <= utf8.RuneCountInString(full)+1; k++ {
		got, err := w.FetchText(Options{MaxChars: k})
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
	tests := []struct {
		name            string
		stream          []byte
		wantUnsupported bool
	}{
		{
			name:            "encrypted",
			stream:          buildWorkbook([][]byte{rec(RecordFilePass, make([]byte, 6))}),
			wantUnsupported: true,
		},
		{
			name:   "globals without EOF",
			stream: append(bof(0x0005), sstRecord("a")...),
		},
		{
			name:   "not BIFF8",
			stream: rec(RecordBOF, u16(0x0500), u16(0x0005), make([]byte, 4)),
		},
		{
			name:   "not a BOF",
			stream: eof(),
		},
		{
			name:   "sheet without EOF",
			stream: buildWorkbook(nil, testSheet{name: "S", records: [][]byte{labelSst(0, 0, 0)}}),
		},
		{
			name:   "MulRk count mismatch",
			stream: buildWorkbook(nil, testSheet{name: "S", records: [][]byte{rec(RecordMulRk, u16(0), u16(0), u16(15), u32(rkInt(1)), u16(3)), eof()}}),
		},
		{
			name:   "MulRk first column",
			stream: buildWorkbook(nil, testSheet{name: "S", records: [][]byte{mulRk(0, 255, rkInt(1)), eof()}}),
		},
		{
			name:   "short LabelSst",
			stream: buildWorkbook(nil, testSheet{name: "S", records: [][]byte{rec(RecordLabelSst, cell(0, 0)), eof()}}),
		},
		{
			name: "sheet position out of range",
			stream: func() []byte {
				s := buildWorkbook(nil, testSheet{name: "S", records: [][]byte{eof()}})
				le.PutUint32(s[len(bof(5))+recordHeaderLen:], 0xffff)
				return s
			}(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := openWorkbook(t, tt.stream)
			got, err := w.FetchText(Options{})
			if err == nil {
				t.Fatalf("FetchText() = %q, want error", got)
			}
			if tt.wantUnsupported != docerr.IsUnsupported(err) {
				t.Errorf("FetchText() error = %v, wantUnsupported %v", err, tt.wantUnsupported)
			}
			if !tt.wantUnsupported && !docerr.IsFormat(err) {
				t.Errorf("FetchText() error = %v, want format error", err)
			}
		})
	}
}
