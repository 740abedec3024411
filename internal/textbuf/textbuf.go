// Package textbuf accumulates extracted text under a character budget.
//
// The budget counts decoded codepoints, not bytes. A Buffer is owned by a
// single extraction and threaded through every append; reaching the budget
// is a normal way to finish, never an error.
package textbuf

import (
	"math"
	"strings"
	"unicode/utf8"
)

type Buffer struct {
	sb        strings.Builder
	limited   bool
	remaining int
	count     int
	last      rune
}

// New returns a Buffer that accepts at most maxChars codepoints.
// maxChars <= 0 means no limit.
func New(maxChars int) *Buffer {
	return &Buffer{
		limited:   maxChars > 0,
		remaining: maxChars,
	}
}

// Remaining reports how many codepoints may still be written.
func (b *Buffer) Remaining() int {
	if !b.limited {
		return math.MaxInt
	}
	return b.remaining
}

func (b *Buffer) Exhausted() bool {
	return b.limited && b.remaining <= 0
}

// WriteString appends as much of s as the budget allows, cutting on a
// codepoint boundary, and returns the number of codepoints written.
func (b *Buffer) WriteString(s string) int {
	if s == "" || b.Exhausted() {
		return 0
	}

	if b.limited {
		s = Truncate(s, b.remaining)
	}
	n := utf8.RuneCountInString(s)

	b.sb.WriteString(s)
	b.count += n
	if b.limited {
		b.remaining -= n
	}
	b.last, _ = utf8.DecodeLastRuneInString(s)
	return n
}

// WriteNewline appends '\n' if the budget allows it.
func (b *Buffer) WriteNewline() bool {
	return b.WriteString("\n") == 1
}

func (b *Buffer) EndsWithNewline() bool {
	return b.count > 0 && b.last == '\n'
}

// Len returns the number of codepoints written so far.
func (b *Buffer) Len() int {
	return b.count
}

func (b *Buffer) String() string {
	return b.sb.String()
}

// Sanitize leaves '\n' as the only control character: '\r' becomes '\n'
// and every other C0 control or DEL becomes a space. The codepoint count
// is unchanged.
func Sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\r' || r == '\n':
			return '\n'
		case r < 0x20 || r == 0x7f:
			return ' '
		default:
			return r
		}
	}, s)
}

// Truncate returns the first n codepoints of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	for i := range s {
		if n == 0 {
			return s[:i]
		}
		n--
	}
	return s
}
