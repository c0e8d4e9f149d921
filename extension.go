package clienthello

import (
	"github.com/tlsmirror/clienthello/internal/utils"
)

// Extension type identifiers with dedicated sub-decoders. Everything else,
// including GREASE-valued identifiers, decodes to UnknownExtension.
const (
	extTypeServerName          uint16 = 0x0000
	extTypeSupportedGroups     uint16 = 0x000a
	extTypeSignatureAlgorithms uint16 = 0x000d
	extTypeALPN                uint16 = 0x0010
	extTypeSupportedVersions   uint16 = 0x002b
	extTypePSKKeyExchangeModes uint16 = 0x002d
	extTypeKeyShare            uint16 = 0x0033
	extTypeRenegotiationInfo   uint16 = 0xff01
)

// Extension is a decoded ClientHello extension. The implementing set is
// closed: one struct per specially-decoded type plus UnknownExtension for
// everything else.
type Extension interface {
	// ExtensionType returns the wire extension type identifier.
	ExtensionType() uint16

	clientHelloExtension()
}

// ServerNameEntry is a single entry of the server_name(0) list.
type ServerNameEntry struct {
	NameType uint8  `json:"name_type"` // 0x00 is a DNS hostname
	Name     []byte `json:"name"`      // borrowed from the input buffer
}

// ServerNameExtension is server_name(0).
type ServerNameExtension struct {
	Names []ServerNameEntry `json:"names"`
}

// SupportedGroupsExtension is supported_groups(10), GREASE values removed.
type SupportedGroupsExtension struct {
	Groups []uint16 `json:"groups"`
}

// SignatureAlgorithmsExtension is signature_algorithms(13). Unlike the
// other numeric lists, GREASE-shaped values are kept verbatim.
type SignatureAlgorithmsExtension struct {
	Algorithms []uint16 `json:"algorithms"`
}

// ALPNExtension is application_layer_protocol_negotiation(16).
type ALPNExtension struct {
	Protocols [][]byte `json:"protocols"` // borrowed from the input buffer
}

// SupportedVersionsExtension is supported_versions(43), GREASE values
// removed.
type SupportedVersionsExtension struct {
	Versions []uint16 `json:"versions"`
}

// PSKKeyExchangeModesExtension is psk_key_exchange_modes(45). Modes is an
// owned copy, the only extension payload this decoder copies out of the
// input buffer.
type PSKKeyExchangeModesExtension struct {
	Modes utils.Uint8Arr `json:"modes"`
}

// KeyShareExtension is key_share(51). Only the group identifiers are
// retained, GREASE values removed; the key material is read and discarded.
type KeyShareExtension struct {
	Groups []uint16 `json:"groups"`
}

// RenegotiationInfoExtension is renegotiation_info(0xff01). Data is the
// extension body exactly as received, inner length prefix included.
type RenegotiationInfoExtension struct {
	Data []byte `json:"data"` // borrowed from the input buffer
}

// UnknownExtension holds any extension type without a dedicated
// sub-decoder, GREASE-valued types included.
type UnknownExtension struct {
	TypeID uint16 `json:"type_id"`
	Data   []byte `json:"data"` // borrowed from the input buffer
}

func (*ServerNameExtension) ExtensionType() uint16          { return extTypeServerName }
func (*SupportedGroupsExtension) ExtensionType() uint16     { return extTypeSupportedGroups }
func (*SignatureAlgorithmsExtension) ExtensionType() uint16 { return extTypeSignatureAlgorithms }
func (*ALPNExtension) ExtensionType() uint16                { return extTypeALPN }
func (*SupportedVersionsExtension) ExtensionType() uint16   { return extTypeSupportedVersions }
func (*PSKKeyExchangeModesExtension) ExtensionType() uint16 { return extTypePSKKeyExchangeModes }
func (*KeyShareExtension) ExtensionType() uint16            { return extTypeKeyShare }
func (*RenegotiationInfoExtension) ExtensionType() uint16   { return extTypeRenegotiationInfo }
func (e *UnknownExtension) ExtensionType() uint16           { return e.TypeID }

func (*ServerNameExtension) clientHelloExtension()          {}
func (*SupportedGroupsExtension) clientHelloExtension()     {}
func (*SignatureAlgorithmsExtension) clientHelloExtension() {}
func (*ALPNExtension) clientHelloExtension()                {}
func (*SupportedVersionsExtension) clientHelloExtension()   {}
func (*PSKKeyExchangeModesExtension) clientHelloExtension() {}
func (*KeyShareExtension) clientHelloExtension()            {}
func (*RenegotiationInfoExtension) clientHelloExtension()   {}
func (*UnknownExtension) clientHelloExtension()             {}

// parseExtension decodes one extension body. GREASE-valued type IDs set the
// flag and are never decoded further, even though their numeric identifier
// is meaningful.
func parseExtension(typeID uint16, body []byte, hasGREASE *bool) (Extension, error) {
	if IsGREASE(typeID) {
		*hasGREASE = true
		return &UnknownExtension{TypeID: typeID, Data: body}, nil
	}

	switch typeID {
	case extTypeServerName:
		return parseServerName(body)
	case extTypeSupportedGroups:
		groups, err := parseUint16ListFiltered(body, "supported groups", hasGREASE)
		if err != nil {
			return nil, err
		}
		return &SupportedGroupsExtension{Groups: groups}, nil
	case extTypeSignatureAlgorithms:
		return parseSignatureAlgorithms(body)
	case extTypeALPN:
		return parseALPN(body)
	case extTypeSupportedVersions:
		return parseSupportedVersions(body, hasGREASE)
	case extTypePSKKeyExchangeModes:
		return parsePSKKeyExchangeModes(body)
	case extTypeKeyShare:
		return parseKeyShare(body, hasGREASE)
	case extTypeRenegotiationInfo:
		return &RenegotiationInfoExtension{Data: body}, nil
	default:
		return &UnknownExtension{TypeID: typeID, Data: body}, nil
	}
}

func parseServerName(body []byte) (Extension, error) {
	c := newCursor(body)
	listLen, err := c.readUint16("SNI list length")
	if err != nil {
		return nil, err
	}
	listData, err := c.readBytes(int(listLen), "SNI list data")
	if err != nil {
		return nil, err
	}

	inner := newCursor(listData)
	var names []ServerNameEntry
	for inner.remaining() > 0 {
		nameType, err := inner.readUint8("SNI name type")
		if err != nil {
			return nil, err
		}
		nameLen, err := inner.readUint16("SNI name length")
		if err != nil {
			return nil, err
		}
		name, err := inner.readBytes(int(nameLen), "SNI name")
		if err != nil {
			return nil, err
		}
		names = append(names, ServerNameEntry{NameType: nameType, Name: name})
	}
	return &ServerNameExtension{Names: names}, nil
}

func parseSignatureAlgorithms(body []byte) (Extension, error) {
	c := newCursor(body)
	listLen, err := c.readUint16("signature algorithms length")
	if err != nil {
		return nil, err
	}
	listData, err := c.readBytes(int(listLen), "signature algorithms data")
	if err != nil {
		return nil, err
	}

	inner := newCursor(listData)
	var algs []uint16
	for inner.remaining() >= 2 {
		alg, err := inner.readUint16("signature algorithm")
		if err != nil {
			return nil, err
		}
		algs = append(algs, alg)
	}
	return &SignatureAlgorithmsExtension{Algorithms: algs}, nil
}

func parseALPN(body []byte) (Extension, error) {
	c := newCursor(body)
	listLen, err := c.readUint16("ALPN list length")
	if err != nil {
		return nil, err
	}
	listData, err := c.readBytes(int(listLen), "ALPN list data")
	if err != nil {
		return nil, err
	}

	inner := newCursor(listData)
	var protocols [][]byte
	for inner.remaining() > 0 {
		protoLen, err := inner.readUint8("ALPN protocol length")
		if err != nil {
			return nil, err
		}
		proto, err := inner.readBytes(int(protoLen), "ALPN protocol")
		if err != nil {
			return nil, err
		}
		protocols = append(protocols, proto)
	}
	return &ALPNExtension{Protocols: protocols}, nil
}

// parseSupportedVersions uses a 1-byte list length prefix, unlike the other
// u16 lists.
func parseSupportedVersions(body []byte, hasGREASE *bool) (Extension, error) {
	c := newCursor(body)
	listLen, err := c.readUint8("supported versions length")
	if err != nil {
		return nil, err
	}
	listData, err := c.readBytes(int(listLen), "supported versions data")
	if err != nil {
		return nil, err
	}

	inner := newCursor(listData)
	var versions []uint16
	for inner.remaining() >= 2 {
		ver, err := inner.readUint16("supported version")
		if err != nil {
			return nil, err
		}
		if IsGREASE(ver) {
			*hasGREASE = true
		} else {
			versions = append(versions, ver)
		}
	}
	return &SupportedVersionsExtension{Versions: versions}, nil
}

func parsePSKKeyExchangeModes(body []byte) (Extension, error) {
	c := newCursor(body)
	listLen, err := c.readUint8("PSK modes length")
	if err != nil {
		return nil, err
	}
	listData, err := c.readBytes(int(listLen), "PSK modes data")
	if err != nil {
		return nil, err
	}

	modes := make(utils.Uint8Arr, len(listData))
	copy(modes, listData)
	return &PSKKeyExchangeModesExtension{Modes: modes}, nil
}

func parseKeyShare(body []byte, hasGREASE *bool) (Extension, error) {
	c := newCursor(body)
	listLen, err := c.readUint16("key share list length")
	if err != nil {
		return nil, err
	}
	listData, err := c.readBytes(int(listLen), "key share list data")
	if err != nil {
		return nil, err
	}

	inner := newCursor(listData)
	var groups []uint16
	for inner.remaining() >= 4 {
		group, err := inner.readUint16("key share group")
		if err != nil {
			return nil, err
		}
		keyLen, err := inner.readUint16("key share key length")
		if err != nil {
			return nil, err
		}
		if _, err := inner.readBytes(int(keyLen), "key share key data"); err != nil {
			return nil, err
		}
		if IsGREASE(group) {
			*hasGREASE = true
		} else {
			groups = append(groups, group)
		}
	}
	return &KeyShareExtension{Groups: groups}, nil
}

// parseUint16ListFiltered decodes a 2-byte-length-prefixed list of u16
// entries, dropping GREASE values. A dangling final byte from an odd
// declared length is left unread without error.
func parseUint16ListFiltered(body []byte, field string, hasGREASE *bool) ([]uint16, error) {
	c := newCursor(body)
	listLen, err := c.readUint16(field + " length")
	if err != nil {
		return nil, err
	}
	listData, err := c.readBytes(int(listLen), field+" data")
	if err != nil {
		return nil, err
	}

	inner := newCursor(listData)
	var values []uint16
	for inner.remaining() >= 2 {
		v, err := inner.readUint16(field + " entry")
		if err != nil {
			return nil, err
		}
		if IsGREASE(v) {
			*hasGREASE = true
		} else {
			values = append(values, v)
		}
	}
	return values, nil
}
