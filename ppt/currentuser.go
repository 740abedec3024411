package ppt

import (
	"encoding/binary"

	"github.com/asalih/go-officetext/internal/codepage"
	"github.com/asalih/go-officetext/internal/docerr"
)

const (
	currentUserAtomLen = 28

	HeaderTokenPlain     uint32 = 0xE391C05F
	HeaderTokenEncrypted uint32 = 0xF3D1C4DF

	docFileVersion = 0x03F4
)

// CurrentUserAtom is the record in the "Current User" stream that points
// at the most recent UserEditAtom.
type CurrentUserAtom struct {
	Size                uint32
	HeaderToken         uint32
	OffsetToCurrentEdit uint32
	RelVersion          uint32
	AnsiUserName        string
	UserName            string
}

// ParseCurrentUserAtom decodes and checks the atom at the start of b.
func ParseCurrentUserAtom(b []byte) (*CurrentUserAtom, error) {
	rh, err := ReadRecordHeader(b, 0)
	if err != nil {
		return nil, err
	}
	if len(b) < currentUserAtomLen {
		return nil, docerr.Formatf("CurrentUserAtom is %v bytes, need %v", len(b), currentUserAtomLen)
	}

	le := binary.LittleEndian
	lenUserName := uint64(le.Uint16(b[20:]))
	cua := &CurrentUserAtom{
		Size:                le.Uint32(b[8:]),
		HeaderToken:         le.Uint32(b[12:]),
		OffsetToCurrentEdit: le.Uint32(b[16:]),
	}

	switch {
	case rh.RecVer != 0 || rh.RecInstance != 0 || rh.RecType != RT_CurrentUserAtom:
		return nil, docerr.Formatf("Current User does not start with a CurrentUserAtom")
	case lenUserName > 255:
		return nil, docerr.Formatf("user name length %v exceeds 255", lenUserName)
	case le.Uint16(b[22:]) != docFileVersion || b[24] != 3 || b[25] != 0:
		return nil, docerr.Formatf("unsupported file version 0x%04X %v.%v", le.Uint16(b[22:]), b[24], b[25])
	case cua.HeaderToken != HeaderTokenPlain && cua.HeaderToken != HeaderTokenEncrypted:
		return nil, docerr.Formatf("unknown header token 0x%08X", cua.HeaderToken)
	}

	end := uint64(currentUserAtomLen) + lenUserName + 4 + 2*lenUserName
	if uint64(len(b)) < end {
		return nil, docerr.Formatf("CurrentUserAtom user names run past the %v byte stream", len(b))
	}

	pos := uint64(currentUserAtomLen)
	if cua.AnsiUserName, err = codepage.Latin1(b[pos : pos+lenUserName]); err != nil {
		return nil, docerr.Formatf("user name: %v", err)
	}
	pos += lenUserName

	cua.RelVersion = le.Uint32(b[pos:])
	if cua.RelVersion != 8 && cua.RelVersion != 9 {
		return nil, docerr.Formatf("unknown relVersion %v", cua.RelVersion)
	}
	pos += 4

	if cua.UserName, err = codepage.UTF16LE(b[pos : pos+2*lenUserName]); err != nil {
		return nil, docerr.Formatf("user name: %v", err)
	}

	return cua, nil
}

// Encrypted reports whether the presentation is protected.
func (c *CurrentUserAtom) Encrypted() bool {
	return c.HeaderToken == HeaderTokenEncrypted
}
