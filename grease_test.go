package clienthello_test

import (
	"testing"

	. "github.com/tlsmirror/clienthello"
)

var mapGREASEValues = map[uint16]bool{
	0x0A0A: true,
	0x1A1A: true,
	0x2A2A: true,
	0x3A3A: true,
	0x4A4A: true,
	0x5A5A: true,
	0x6A6A: true,
	0x7A7A: true,
	0x8A8A: true,
	0x9A9A: true,
	0xAAAA: true,
	0xBABA: true,
	0xCACA: true,
	0xDADA: true,
	0xEAEA: true,
	0xFAFA: true,
	0x0000: false,
	0x0A1A: false, // bytes differ
	0x1A0A: false,
	0x0A0B: false, // low nibble not 0xA
	0x0B0B: false,
	0x1301: false,
	0x0304: false,
	0xFAFB: false,
	0xFFFF: false,
}

func TestIsGREASE(t *testing.T) {
	for v, want := range mapGREASEValues {
		if got := IsGREASE(v); got != want {
			t.Errorf("IsGREASE(%#04x) = %v, want %v", v, got, want)
		}
	}
}

var mapGREASETransportParameters = map[uint64]bool{
	0:                  false,
	26:                 false,
	27:                 true,
	28:                 false,
	58:                 true,
	89:                 true,
	0x20:               false,
	0x3128:             false,
	0x22d01138870c6f9f: true, // observed in Chrome Initials
}

func TestIsGREASETransportParameter(t *testing.T) {
	for id, want := range mapGREASETransportParameters {
		if got := IsGREASETransportParameter(id); got != want {
			t.Errorf("IsGREASETransportParameter(%#x) = %v, want %v", id, got, want)
		}
	}
}
