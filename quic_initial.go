package clienthello

import (
	"errors"

	"github.com/tlsmirror/clienthello/internal/utils"
)

var (
	ErrNotQUICLongHeader = errors.New("packet is not in QUIC long header format")
	ErrNotQUICInitial    = errors.New("packet is not a QUIC Initial packet")
)

// sampleOffset is where the header protection sample starts within the
// protected packet payload (RFC 9001 section 5.4.2: 4 bytes past the start
// of the packet number field).
const sampleOffset = 4

// QUICHeader is the long header of a client Initial packet, after header
// protection removal.
type QUICHeader struct {
	Version      utils.Uint8Arr `json:"version"`
	DCID         utils.Uint8Arr `json:"dcid"`
	SCID         utils.Uint8Arr `json:"scid"`
	Token        utils.Uint8Arr `json:"token,omitempty"`
	PacketNumber uint32         `json:"packet_number"`
}

// QUICClientInitial is one decrypted client Initial packet.
type QUICClientInitial struct {
	Header     *QUICHeader `json:"header"`
	FrameTypes []uint64    `json:"frame_types"` // wire order, padding runs collapsed

	frames []Frame
}

// ParseQUICClientInitial removes packet protection from a client Initial
// packet and decodes its frames. The ClientHello inside is reassembled
// separately (see ClientHelloReconstructor) because it may span several
// CRYPTO fragments or even several packets.
func ParseQUICClientInitial(p []byte) (*QUICClientInitial, error) {
	c := newCursor(p)

	protectedFirst, err := c.readUint8("packet header byte")
	if err != nil {
		return nil, err
	}
	if protectedFirst&0xc0 != 0xc0 {
		return nil, ErrNotQUICLongHeader
	}
	// long packet type bits must be 00 for Initial
	if protectedFirst&0x30 != 0 {
		return nil, ErrNotQUICInitial
	}

	hdr := &QUICHeader{}
	if hdr.Version, err = c.readBytes(4, "version"); err != nil {
		return nil, err
	}

	dcidLen, err := c.readUint8("DCID length")
	if err != nil {
		return nil, err
	}
	if hdr.DCID, err = c.readBytes(int(dcidLen), "DCID"); err != nil {
		return nil, err
	}

	scidLen, err := c.readUint8("SCID length")
	if err != nil {
		return nil, err
	}
	if hdr.SCID, err = c.readBytes(int(scidLen), "SCID"); err != nil {
		return nil, err
	}

	tokenLen, err := c.readVarInt("token length")
	if err != nil {
		return nil, err
	}
	if hdr.Token, err = c.readBytes(int(tokenLen), "token"); err != nil {
		return nil, err
	}

	payloadLen, err := c.readVarInt("packet length")
	if err != nil {
		return nil, err
	}
	headerEnd := len(p) - c.remaining()
	payload, err := c.readBytes(int(payloadLen), "packet payload")
	if err != nil {
		return nil, err
	}
	if len(payload) < sampleOffset+16+1 {
		return nil, &TruncatedError{Field: "header protection sample"}
	}

	key, iv, hpKey, err := ClientInitialKeys(hdr.DCID)
	if err != nil {
		return nil, err
	}
	mask, err := headerProtection(hpKey, payload[sampleOffset:sampleOffset+16])
	if err != nil {
		return nil, err
	}

	// unprotect the first byte; its low 2 bits encode the packet number
	// length minus one
	firstByte := protectedFirst ^ (mask[0] & 0x0f)
	pnLen := int(firstByte&0x03) + 1

	// rebuild the unprotected header as AEAD additional data
	header := make([]byte, headerEnd, headerEnd+pnLen)
	copy(header, p[:headerEnd])
	header[0] = firstByte
	for i := 0; i < pnLen; i++ {
		pnByte := payload[i] ^ mask[i+1]
		header = append(header, pnByte)
		hdr.PacketNumber = hdr.PacketNumber<<8 | uint32(pnByte)
	}

	if len(payload) < pnLen+16 {
		return nil, &TruncatedError{Field: "packet payload"}
	}
	plaintext, err := decryptInitialPayload(key, iv, uint64(hdr.PacketNumber), payload[pnLen:], header)
	if err != nil {
		return nil, err
	}

	frames, err := parseFrames(plaintext)
	if err != nil {
		return nil, err
	}

	ci := &QUICClientInitial{Header: hdr, frames: frames}
	for _, f := range frames {
		ci.FrameTypes = append(ci.FrameTypes, f.FrameType())
	}
	return ci, nil
}

// Frames returns every decoded frame of the packet in wire order, with
// padding runs collapsed.
func (ci *QUICClientInitial) Frames() []Frame {
	return ci.frames
}

// CryptoFrames returns the CRYPTO frames of the packet in wire order.
func (ci *QUICClientInitial) CryptoFrames() []*CryptoFrame {
	var cryptos []*CryptoFrame
	for _, f := range ci.frames {
		if cf, ok := f.(*CryptoFrame); ok {
			cryptos = append(cryptos, cf)
		}
	}
	return cryptos
}
