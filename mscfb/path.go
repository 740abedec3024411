package mscfb

import (
	"fmt"
	"path"
	"strings"
	"unicode/utf16"
)

const MAX_NAME_LEN int = 31

type Ordering int

const (
	OrderLess Ordering = iota
	OrderEqual
	OrderGreater
)

func ValidateName(name string) error {
	if strings.ContainsAny(name, "/\\:!") {
		return fmt.Errorf("name contains one of /\\:! characters: %v", name)
	}
	if n := len(utf16.Encode([]rune(name))); n > MAX_NAME_LEN {
		return fmt.Errorf("name is %v UTF-16 code units, limit is %v: %v", n, MAX_NAME_LEN, name)
	}

	return nil
}

// CompareNames orders directory entry names the way the red-black tree of
// a compound file does: shorter names first, then code unit by code unit
// after upper-casing.
func CompareNames(nameLeft, nameRight string) Ordering {
	l := utf16.Encode([]rune(strings.ToUpper(nameLeft)))
	r := utf16.Encode([]rune(strings.ToUpper(nameRight)))

	if len(l) != len(r) {
		if len(l) < len(r) {
			return OrderLess
		}
		return OrderGreater
	}

	for i := range l {
		switch {
		case l[i] < r[i]:
			return OrderLess
		case l[i] > r[i]:
			return OrderGreater
		}
	}

	return OrderEqual
}

// NameChainFromPath splits a slash separated path into entry names. Paths
// that climb above the root resolve to the root itself.
func NameChainFromPath(s string) []string {
	s = path.Clean("/" + s)
	s = strings.TrimPrefix(s, "/")

	if s == "" {
		return []string{}
	}

	return strings.Split(s, "/")
}

func PathFromNameChain(names []string) string {
	return "/" + strings.Join(names, "/")
}
