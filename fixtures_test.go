package clienthello_test

// Hand-assembled ClientHello fixtures used across the parser tests. The
// builders mirror the wire layout byte for byte so individual tests can
// corrupt or truncate specific fields.

func appendUint16(buf []byte, v uint16) []byte {
	return append(buf, byte(v>>8), byte(v))
}

func extHeader(buf []byte, typeID uint16, dataLen int) []byte {
	buf = appendUint16(buf, typeID)
	return appendUint16(buf, uint16(dataLen))
}

func sniExt(host string) []byte {
	listLen := 1 + 2 + len(host)
	var b []byte
	b = extHeader(b, 0x0000, 2+listLen)
	b = appendUint16(b, uint16(listLen))
	b = append(b, 0x00) // host_name
	b = appendUint16(b, uint16(len(host)))
	return append(b, host...)
}

func alpnExt(protocols ...string) []byte {
	listLen := 0
	for _, p := range protocols {
		listLen += 1 + len(p)
	}
	var b []byte
	b = extHeader(b, 0x0010, 2+listLen)
	b = appendUint16(b, uint16(listLen))
	for _, p := range protocols {
		b = append(b, byte(len(p)))
		b = append(b, p...)
	}
	return b
}

func supportedVersionsExt(versions ...uint16) []byte {
	var b []byte
	b = extHeader(b, 0x002b, 1+2*len(versions))
	b = append(b, byte(2*len(versions)))
	for _, v := range versions {
		b = appendUint16(b, v)
	}
	return b
}

func supportedGroupsExt(groups ...uint16) []byte {
	var b []byte
	b = extHeader(b, 0x000a, 2+2*len(groups))
	b = appendUint16(b, uint16(2*len(groups)))
	for _, g := range groups {
		b = appendUint16(b, g)
	}
	return b
}

func signatureAlgorithmsExt(algs ...uint16) []byte {
	var b []byte
	b = extHeader(b, 0x000d, 2+2*len(algs))
	b = appendUint16(b, uint16(2*len(algs)))
	for _, a := range algs {
		b = appendUint16(b, a)
	}
	return b
}

type keyShareEntry struct {
	group uint16
	key   []byte
}

func keyShareExt(entries ...keyShareEntry) []byte {
	listLen := 0
	for _, e := range entries {
		listLen += 2 + 2 + len(e.key)
	}
	var b []byte
	b = extHeader(b, 0x0033, 2+listLen)
	b = appendUint16(b, uint16(listLen))
	for _, e := range entries {
		b = appendUint16(b, e.group)
		b = appendUint16(b, uint16(len(e.key)))
		b = append(b, e.key...)
	}
	return b
}

func pskModesExt(modes ...byte) []byte {
	var b []byte
	b = extHeader(b, 0x002d, 1+len(modes))
	b = append(b, byte(len(modes)))
	return append(b, modes...)
}

func renegotiationInfoExt() []byte {
	var b []byte
	b = extHeader(b, 0xff01, 1)
	return append(b, 0x00)
}

func unknownExt(typeID uint16, data []byte) []byte {
	var b []byte
	b = extHeader(b, typeID, len(data))
	return append(b, data...)
}

func repeatByte(b byte, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = b
	}
	return out
}

// buildHello assembles a handshake message from cipher suites and
// pre-encoded extensions around a fixed random and session ID.
func buildHello(cipherSuites []uint16, extensions ...[]byte) []byte {
	var body []byte
	body = append(body, 0x03, 0x03)
	body = append(body, repeatByte(0xAB, 32)...)
	body = append(body, 0x20)
	body = append(body, repeatByte(0xCD, 32)...)
	body = appendUint16(body, uint16(2*len(cipherSuites)))
	for _, cs := range cipherSuites {
		body = appendUint16(body, cs)
	}
	body = append(body, 0x01, 0x00)

	var exts []byte
	for _, e := range extensions {
		exts = append(exts, e...)
	}
	body = appendUint16(body, uint16(len(exts)))
	body = append(body, exts...)

	return wrapHandshake(body)
}

func wrapHandshake(body []byte) []byte {
	msg := []byte{0x01, byte(len(body) >> 16), byte(len(body) >> 8), byte(len(body))}
	return append(msg, body...)
}

// wrapRecord prepends a TLS record layer header to a handshake message.
func wrapRecord(handshake []byte) []byte {
	rec := []byte{0x16, 0x03, 0x01}
	rec = appendUint16(rec, uint16(len(handshake)))
	return append(rec, handshake...)
}

// minimalRaw is the smallest well-formed ClientHello: one cipher suite, no
// session ID, no extensions block at all.
func minimalRaw() []byte {
	var body []byte
	body = append(body, 0x03, 0x03)
	body = append(body, make([]byte, 32)...)
	body = append(body, 0x00)
	body = append(body, 0x00, 0x02, 0x13, 0x01)
	body = append(body, 0x01, 0x00)
	return wrapHandshake(body)
}

func fullExtensions() [][]byte {
	return [][]byte{
		sniExt("example.com"),
		alpnExt("h2", "http/1.1"),
		supportedVersionsExt(0x3A3A, 0x0304, 0x0303), // leading GREASE
		supportedGroupsExt(0x001d, 0x0017),
		signatureAlgorithmsExt(0x0403, 0x0804),
		keyShareExt(
			keyShareEntry{group: 0x1A1A, key: []byte{0x00}}, // GREASE
			keyShareEntry{group: 0x001d, key: repeatByte(0xEE, 32)},
		),
		pskModesExt(0x01),
		renegotiationInfoExt(),
		unknownExt(0x0042, []byte{0xDE, 0xAD, 0xBE}),
	}
}

// fullRaw is a representative browser-style ClientHello: GREASE in the
// cipher suites, supported versions and key share, nine extensions.
func fullRaw() []byte {
	return buildHello([]uint16{0x0A0A, 0x1301, 0x1302, 0x1303}, fullExtensions()...)
}
