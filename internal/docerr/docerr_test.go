package docerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKinds(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		format      bool
		unsupported bool
	}{
		{
			name:   "format",
			err:    Formatf("bad offset %v", 12),
			format: true,
		},
		{
			name:        "unsupported",
			err:         Unsupportedf("encrypted"),
			unsupported: true,
		},
		{
			name:   "wrapped twice",
			err:    fmt.Errorf("doc: %w", Formatf("clx")),
			format: true,
		},
		{
			name: "foreign",
			err:  errors.New("boom"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsFormat(tt.err); got != tt.format {
				t.Errorf("IsFormat() = %v, want %v", got, tt.format)
			}
			if got := IsUnsupported(tt.err); got != tt.unsupported {
				t.Errorf("IsUnsupported() = %v, want %v", got, tt.unsupported)
			}
		})
	}
}

func TestFormatfMessage(t *testing.T) {
	err := Formatf("sector %v out of range", 7)
	if got, want := err.Error(), "sector 7 out of range: malformed document"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
