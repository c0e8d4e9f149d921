package clienthello

import (
	"encoding/binary"
	"io"
	"unicode/utf8"

	"github.com/tlsmirror/clienthello/internal/utils"
)

const (
	contentTypeHandshake     = 0x16 // TLS record content type
	handshakeTypeClientHello = 0x01 // handshake message type

	recordHeaderLen    = 5
	sniNameTypeDNSHost = 0x00
)

// ClientHello is the decoded first message of a TLS handshake.
//
// The decode is zero-copy: Random, SessionID, CompressionMethods and every
// borrowed extension field are subslices of the buffer given to Parse or
// ParseRecord. The buffer must outlive the ClientHello and must not be
// mutated while it is in use. CipherSuites and the GREASE-filtered
// extension lists are newly allocated (filtering requires it), as is the
// PSK key exchange modes copy.
type ClientHello struct {
	LegacyVersion      uint16         `json:"legacy_version"`
	Random             utils.Uint8Arr `json:"random"`        // exactly 32 bytes
	SessionID          utils.Uint8Arr `json:"session_id"`    // 0-32 bytes by convention, not enforced
	CipherSuites       []uint16       `json:"cipher_suites"` // GREASE values removed
	CompressionMethods utils.Uint8Arr `json:"compression_methods"`
	Extensions         []Extension    `json:"extensions"` // wire order, duplicates kept
	HasGREASE          bool           `json:"has_grease"` // true if any GREASE value was observed anywhere
}

// Parse decodes a bare handshake message with no record layer, the shape
// found inside QUIC CRYPTO frames. The input must begin with the handshake
// type byte 0x01.
//
// Either a complete ClientHello is returned or an error; no partial result
// is ever observable.
func Parse(p []byte) (*ClientHello, error) {
	if len(p) == 0 {
		return nil, &InputTooShortError{Need: 1, Have: 0}
	}

	c := newCursor(p)
	hsType, err := c.readUint8("handshake type")
	if err != nil {
		return nil, err
	}
	if hsType != handshakeTypeClientHello {
		return nil, &UnexpectedHandshakeTypeError{Actual: hsType}
	}

	bodyLen, err := c.readUint24("handshake length")
	if err != nil {
		return nil, err
	}
	body, err := c.readBytes(int(bodyLen), "handshake body")
	if err != nil {
		return nil, err
	}

	return parseBody(body)
}

// ParseRecord decodes a full TLS record: the 5-byte record-layer header
// followed by the handshake message. The input must begin with the
// Handshake content type byte 0x16.
func ParseRecord(p []byte) (*ClientHello, error) {
	if len(p) < recordHeaderLen {
		return nil, &InputTooShortError{Need: recordHeaderLen, Have: len(p)}
	}

	c := newCursor(p)
	contentType, err := c.readUint8("record content type")
	if err != nil {
		return nil, err
	}
	if contentType != contentTypeHandshake {
		return nil, &UnexpectedContentTypeError{Actual: contentType}
	}

	if _, err := c.readUint16("record protocol version"); err != nil {
		return nil, err
	}
	recordLen, err := c.readUint16("record length")
	if err != nil {
		return nil, err
	}
	handshake, err := c.readBytes(int(recordLen), "record payload")
	if err != nil {
		return nil, err
	}

	return Parse(handshake)
}

// ReadClientHello reads exactly one TLS record from r and decodes it. The
// raw record bytes are returned even when decoding fails, so the caller
// can rewind the stream (see utils.RewindConn).
func ReadClientHello(r io.Reader) (raw []byte, ch *ClientHello, err error) {
	raw = make([]byte, recordHeaderLen)
	if _, err = io.ReadFull(r, raw); err != nil {
		return nil, nil, err
	}

	raw = append(raw, make([]byte, binary.BigEndian.Uint16(raw[3:recordHeaderLen]))...)
	if _, err = io.ReadFull(r, raw[recordHeaderLen:]); err != nil {
		return raw, nil, err
	}

	ch, err = ParseRecord(raw)
	return raw, ch, err
}

func parseBody(body []byte) (*ClientHello, error) {
	c := newCursor(body)
	ch := new(ClientHello)

	var err error
	if ch.LegacyVersion, err = c.readUint16("legacy version"); err != nil {
		return nil, err
	}
	if ch.Random, err = c.readBytes(32, "client random"); err != nil {
		return nil, err
	}

	sidLen, err := c.readUint8("session ID length")
	if err != nil {
		return nil, err
	}
	if ch.SessionID, err = c.readBytes(int(sidLen), "session ID"); err != nil {
		return nil, err
	}

	if ch.CipherSuites, err = parseCipherSuites(c, &ch.HasGREASE); err != nil {
		return nil, err
	}

	compLen, err := c.readUint8("compression methods length")
	if err != nil {
		return nil, err
	}
	if ch.CompressionMethods, err = c.readBytes(int(compLen), "compression methods"); err != nil {
		return nil, err
	}

	// A body ending right after compression methods has no extensions
	// block at all; that is not an error.
	if c.remaining() >= 2 {
		if ch.Extensions, err = parseExtensions(c, &ch.HasGREASE); err != nil {
			return nil, err
		}
	}

	return ch, nil
}

func parseCipherSuites(c *cursor, hasGREASE *bool) ([]uint16, error) {
	listLen, err := c.readUint16("cipher suites length")
	if err != nil {
		return nil, err
	}
	listData, err := c.readBytes(int(listLen), "cipher suites data")
	if err != nil {
		return nil, err
	}

	inner := newCursor(listData)
	var suites []uint16
	for inner.remaining() >= 2 {
		suite, err := inner.readUint16("cipher suite")
		if err != nil {
			return nil, err
		}
		if IsGREASE(suite) {
			*hasGREASE = true
		} else {
			suites = append(suites, suite)
		}
	}
	return suites, nil
}

func parseExtensions(c *cursor, hasGREASE *bool) ([]Extension, error) {
	listLen, err := c.readUint16("extensions length")
	if err != nil {
		return nil, err
	}
	listData, err := c.readBytes(int(listLen), "extensions data")
	if err != nil {
		return nil, err
	}

	inner := newCursor(listData)
	var extensions []Extension
	for inner.remaining() >= 4 {
		typeID, err := inner.readUint16("extension type")
		if err != nil {
			return nil, err
		}
		extLen, err := inner.readUint16("extension length")
		if err != nil {
			return nil, err
		}
		extBody, err := inner.readBytes(int(extLen), "extension body")
		if err != nil {
			return nil, err
		}
		ext, err := parseExtension(typeID, extBody, hasGREASE)
		if err != nil {
			return nil, err
		}
		extensions = append(extensions, ext)
	}
	return extensions, nil
}

// ServerName returns the first DNS hostname carried by an SNI extension,
// or the empty string when no SNI extension is present, no entry has the
// DNS name type, or the name is not valid UTF-8.
func (ch *ClientHello) ServerName() string {
	for _, ext := range ch.Extensions {
		sni, ok := ext.(*ServerNameExtension)
		if !ok {
			continue
		}
		for _, entry := range sni.Names {
			if entry.NameType == sniNameTypeDNSHost {
				if !utf8.Valid(entry.Name) {
					return ""
				}
				return string(entry.Name)
			}
		}
	}
	return ""
}

// ALPNProtocols returns the protocol list of the first ALPN extension, or
// nil when absent.
func (ch *ClientHello) ALPNProtocols() [][]byte {
	for _, ext := range ch.Extensions {
		if alpn, ok := ext.(*ALPNExtension); ok {
			return alpn.Protocols
		}
	}
	return nil
}

// SupportedVersions returns the version list of the first supported
// versions extension, GREASE values already excluded.
func (ch *ClientHello) SupportedVersions() []uint16 {
	for _, ext := range ch.Extensions {
		if sv, ok := ext.(*SupportedVersionsExtension); ok {
			return sv.Versions
		}
	}
	return nil
}

// SupportedGroups returns the group list of the first supported groups
// extension, GREASE values already excluded.
func (ch *ClientHello) SupportedGroups() []uint16 {
	for _, ext := range ch.Extensions {
		if sg, ok := ext.(*SupportedGroupsExtension); ok {
			return sg.Groups
		}
	}
	return nil
}

// SignatureAlgorithms returns the algorithm list of the first signature
// algorithms extension. GREASE-shaped values are kept verbatim.
func (ch *ClientHello) SignatureAlgorithms() []uint16 {
	for _, ext := range ch.Extensions {
		if sa, ok := ext.(*SignatureAlgorithmsExtension); ok {
			return sa.Algorithms
		}
	}
	return nil
}

// KeyShareGroups returns the group list of the first key share extension,
// GREASE values already excluded.
func (ch *ClientHello) KeyShareGroups() []uint16 {
	for _, ext := range ch.Extensions {
		if ks, ok := ext.(*KeyShareExtension); ok {
			return ks.Groups
		}
	}
	return nil
}

// HasRenegotiationInfo reports whether a renegotiation_info extension is
// present.
func (ch *ClientHello) HasRenegotiationInfo() bool {
	for _, ext := range ch.Extensions {
		if _, ok := ext.(*RenegotiationInfoExtension); ok {
			return true
		}
	}
	return false
}

// FindExtension returns the raw body of the first UnknownExtension with
// the given type identifier, or of the renegotiation_info extension when
// queried with 0xff01. Types decoded into structured variants are reachable
// only through their typed accessors and report false here.
func (ch *ClientHello) FindExtension(typeID uint16) ([]byte, bool) {
	for _, ext := range ch.Extensions {
		switch e := ext.(type) {
		case *RenegotiationInfoExtension:
			if typeID == extTypeRenegotiationInfo {
				return e.Data, true
			}
		case *UnknownExtension:
			if e.TypeID == typeID {
				return e.Data, true
			}
		}
	}
	return nil, false
}
