package clienthello

// IsGREASE reports whether v is one of the 16 reserved GREASE values
// defined by RFC 8701 (0x0A0A, 0x1A1A, ... 0xFAFA): both bytes are equal
// and their low nibble is 0xA.
func IsGREASE(v uint16) bool {
	return (v>>8) == v&0xff && v&0xf == 0xa
}

// IsGREASETransportParameter reports whether a QUIC transport parameter ID
// is reserved by RFC 9000 section 18.1 (27, 58, 89, ... = 31*N+27).
func IsGREASETransportParameter(id uint64) bool {
	return id >= 27 && (id-27)%31 == 0
}
