package xls

import (
	"encoding/binary"
	"strings"

	"github.com/asalih/go-officetext/internal/codepage"
	"github.com/asalih/go-officetext/internal/docerr"
)

const (
	strHighByte = 0x01
	strExtSt    = 0x04
	strRichSt   = 0x08
)

// sstReader walks the shared string table, which may spill over into any
// number of Continue records.
type sstReader struct {
	data     []byte
	offset   int
	blockEnd int
}

// readSST decodes up to maxSST strings of the SST record whose body starts
// at data[0] and is size bytes long. It returns the strings and how many
// bytes of data the caller should skip: the end of the last string when
// every string was read, otherwise the end of the current block, leaving
// the remaining Continue records to be skipped as ordinary records.
func readSST(data []byte, size int, maxSST int) ([]string, int, error) {
	if size > len(data) {
		return nil, 0, docerr.Formatf("SST runs past the end of the stream")
	}
	if size < 8 {
		return nil, 0, docerr.Formatf("SST is %v bytes", size)
	}

	csTotal := int32(binary.LittleEndian.Uint32(data))
	cstUnique := int32(binary.LittleEndian.Uint32(data[4:]))
	if csTotal < 0 || cstUnique < 0 {
		return nil, 0, docerr.Formatf("SST counts %v/%v are negative", csTotal, cstUnique)
	}

	count := int(cstUnique)
	if maxSST < count {
		count = maxSST
	}

	r := &sstReader{data: data, offset: 8, blockEnd: size}
	sst := make([]string, 0, count)
	for i := 0; i < count; i++ {
		if r.offset == r.blockEnd {
			if err := r.nextContinue(); err != nil {
				return nil, 0, err
			}
		}
		s, err := r.readString()
		if err != nil {
			return nil, 0, err
		}
		sst = append(sst, s)
	}

	if maxSST >= int(cstUnique) {
		return sst, r.offset, nil
	}
	return sst, r.blockEnd, nil
}

// nextContinue moves into the Continue record at the current offset.
func (r *sstReader) nextContinue() error {
	rh, err := readRecordHeader(r.data, r.offset)
	if err != nil {
		return err
	}
	if rh.ID != RecordContinue {
		return docerr.Formatf("SST expects Continue, found record 0x%04X", rh.ID)
	}
	end := r.offset + recordHeaderLen + int(rh.Size)
	if end > len(r.data) {
		return docerr.Formatf("Continue record runs past the end of the stream")
	}
	r.blockEnd = end
	r.offset += recordHeaderLen
	return nil
}

func (r *sstReader) need(n int) error {
	if r.blockEnd-r.offset < n {
		return docerr.Formatf("SST string field at %v crosses its record", r.offset)
	}
	return nil
}

// readString decodes one XLUnicodeRichExtendedString.
func (r *sstReader) readString() (string, error) {
	le := binary.LittleEndian
	if err := r.need(3); err != nil {
		return "", err
	}
	cch := int(le.Uint16(r.data[r.offset:]))
	flags := r.data[r.offset+2]
	r.offset += 3

	var cRun int
	var cbExtRst int32
	if flags&strRichSt != 0 {
		if err := r.need(2); err != nil {
			return "", err
		}
		cRun = int(le.Uint16(r.data[r.offset:]))
		r.offset += 2
	}
	if flags&strExtSt != 0 {
		if err := r.need(4); err != nil {
			return "", err
		}
		cbExtRst = int32(le.Uint32(r.data[r.offset:]))
		r.offset += 4
		if cbExtRst < 0 {
			return "", docerr.Formatf("negative ExtRst size %v", cbExtRst)
		}
	}

	var sb strings.Builder
	remaining := cch
	if err := r.appendChars(&sb, flags&strHighByte != 0, &remaining); err != nil {
		return "", err
	}
	for remaining > 0 {
		if err := r.nextContinue(); err != nil {
			return "", err
		}
		// A string resumed in a Continue record restates its width.
		if err := r.need(1); err != nil {
			return "", err
		}
		highByte := r.data[r.offset]&strHighByte != 0
		r.offset++
		if err := r.appendChars(&sb, highByte, &remaining); err != nil {
			return "", err
		}
	}

	if err := r.skip(4*cRun + int(cbExtRst)); err != nil {
		return "", err
	}

	return sb.String(), nil
}

// appendChars takes as many of the remaining characters as the current
// block holds.
func (r *sstReader) appendChars(sb *strings.Builder, highByte bool, remaining *int) error {
	avail := r.blockEnd - r.offset
	if highByte {
		n := avail / 2
		if n > *remaining {
			n = *remaining
		}
		s, err := codepage.UTF16LE(r.data[r.offset : r.offset+2*n])
		if err != nil {
			return docerr.Formatf("SST string: %v", err)
		}
		sb.WriteString(s)
		r.offset += 2 * n
		*remaining -= n
		return nil
	}

	n := avail
	if n > *remaining {
		n = *remaining
	}
	for _, c := range r.data[r.offset : r.offset+n] {
		if c >= 0x80 {
			c = ' '
		}
		sb.WriteByte(c)
	}
	r.offset += n
	*remaining -= n
	return nil
}

// skip advances over formatting runs and phonetic data, following
// Continue records when they do not fit the current one.
func (r *sstReader) skip(n int) error {
	for n > r.blockEnd-r.offset {
		n -= r.blockEnd - r.offset
		r.offset = r.blockEnd
		if err := r.nextContinue(); err != nil {
			return err
		}
	}
	r.offset += n
	return nil
}
