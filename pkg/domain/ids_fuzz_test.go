package domain

import (
	"strings"
	"testing"
)

// FuzzParseAddress checks that address parsing never panics and that every
// accepted address is trimmed, non-empty, bounded, and printable.
func FuzzParseAddress(f *testing.F) {
	f.Add("")
	f.Add("5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY")
	f.Add("  padded  ")
	f.Add("'; DROP TABLE ledger_items;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))
	f.Add(strings.Repeat("a", 200))

	f.Fuzz(func(t *testing.T, input string) {
		addr, err := ParseAddress(input)
		if err != nil {
			if addr != "" {
				t.Fatalf("error with non-zero address %q", addr)
			}
			return
		}
		s := string(addr)
		if s == "" || s != strings.TrimSpace(s) || len(s) > 128 {
			t.Fatalf("accepted malformed address %q", s)
		}
		for _, r := range s {
			if r <= ' ' || r > '~' {
				t.Fatalf("accepted non-printable rune %q in %q", r, s)
			}
		}
	})
}
