package util

import (
	"strings"
	"testing"
)

func TestGenerateRandomID(t *testing.T) {
	tests := []struct {
		name       string
		prefix     string
		hexLength  int
		wantLength int // prefix + hexLength
	}{
		{
			name:       "document blob prefix",
			prefix:     "agenda_Contoso_",
			hexLength:  12,
			wantLength: 27,
		},
		{
			name:       "thread placeholder prefix",
			prefix:     "thread_",
			hexLength:  32,
			wantLength: 39,
		},
		{
			name:       "no prefix",
			prefix:     "",
			hexLength:  16,
			wantLength: 16,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GenerateRandomID(tt.prefix, tt.hexLength)

			if !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("GenerateRandomID() = %v, want prefix %v", got, tt.prefix)
			}
			if len(got) != tt.wantLength {
				t.Errorf("GenerateRandomID() length = %v, want %v", len(got), tt.wantLength)
			}
			if !isValidHex(got[len(tt.prefix):]) {
				t.Errorf("GenerateRandomID() hex part = %v is not valid hex", got[len(tt.prefix):])
			}
		})
	}
}

func TestGenerateRandomHex(t *testing.T) {
	for _, length := range []int{0, -1, 1, 12, 64} {
		got := GenerateRandomHex(length)
		wantLen := length
		if wantLen < 0 {
			wantLen = 0
		}
		if len(got) != wantLen {
			t.Errorf("GenerateRandomHex(%d) length = %d, want %d", length, len(got), wantLen)
		}
		if !isValidHex(got) {
			t.Errorf("GenerateRandomHex(%d) = %v is not valid hex", length, got)
		}
	}

	// Two draws of meaningful length should essentially never collide.
	a, b := GenerateRandomHex(32), GenerateRandomHex(32)
	if a == b {
		t.Errorf("GenerateRandomHex produced identical values: %v", a)
	}
}

func isValidHex(s string) bool {
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
