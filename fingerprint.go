package clienthello

import (
	"crypto/sha1" // skipcq: GSC-G505
	"encoding/binary"
	"encoding/hex"
	"hash"

	tls "github.com/refraction-networking/utls"
	"golang.org/x/exp/slices"

	"github.com/tlsmirror/clienthello/internal/utils"
)

// ExtensionTypes returns the wire-order extension type identifiers.
// GREASE-valued identifiers are replaced by tls.GREASE_PLACEHOLDER so that
// fingerprints are stable across the per-connection GREASE rotation.
func (ch *ClientHello) ExtensionTypes() []uint16 {
	ids := make([]uint16, 0, len(ch.Extensions))
	for _, ext := range ch.Extensions {
		id := ext.ExtensionType()
		if IsGREASE(id) {
			id = tls.GREASE_PLACEHOLDER
		}
		ids = append(ids, id)
	}
	return ids
}

// FingerprintNID computes the numeric fingerprint of the ClientHello: the
// first 8 bytes of a SHA-1 over the negotiation-relevant fields. With
// normalized set, extension type identifiers are sorted first, which makes
// the fingerprint insensitive to extension shuffling.
func (ch *ClientHello) FingerprintNID(normalized bool) int64 {
	extensionIDs := ch.ExtensionTypes()
	if normalized {
		slices.Sort(extensionIDs)
	}

	h := sha1.New() // skipcq: GO-S1025, GSC-G401
	binary.Write(h, binary.BigEndian, ch.LegacyVersion)
	updateArr(h, utils.Uint16ToUint8(ch.CipherSuites))
	updateArr(h, ch.CompressionMethods)
	updateArr(h, utils.Uint16ToUint8(extensionIDs))
	updateArr(h, utils.Uint16ToUint8(ch.SupportedGroups()))
	updateArr(h, utils.Uint16ToUint8(ch.SignatureAlgorithms()))
	updateArr(h, flattenALPN(ch.ALPNProtocols()))
	updateArr(h, utils.Uint16ToUint8(ch.KeyShareGroups()))
	updateArr(h, ch.pskModes())
	updateArr(h, utils.Uint16ToUint8(ch.SupportedVersions()))

	return int64(binary.BigEndian.Uint64(h.Sum(nil)[:8]))
}

// FingerprintID is the hexadecimal form of FingerprintNID.
func (ch *ClientHello) FingerprintID(normalized bool) string {
	hid := make([]byte, 8)
	binary.BigEndian.PutUint64(hid, uint64(ch.FingerprintNID(normalized)))
	return hex.EncodeToString(hid)
}

func (ch *ClientHello) pskModes() []uint8 {
	for _, ext := range ch.Extensions {
		if psk, ok := ext.(*PSKKeyExchangeModesExtension); ok {
			return psk.Modes
		}
	}
	return nil
}

// flattenALPN re-applies the wire's 1-byte length prefix per protocol so
// that ["h2" "http/1.1"] and ["h2h" "ttp/1.1"] hash differently.
func flattenALPN(protocols [][]byte) []uint8 {
	var flat []uint8
	for _, proto := range protocols {
		flat = append(flat, uint8(len(proto)))
		flat = append(flat, proto...)
	}
	return flat
}

func updateArr(h hash.Hash, arr []byte) {
	binary.Write(h, binary.BigEndian, uint32(len(arr)))
	h.Write(arr)
}
