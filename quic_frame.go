package clienthello

import "fmt"

// Frame type identifiers seen in client Initial packets (RFC 9000
// section 19).
const (
	frameTypePadding uint64 = 0x00
	frameTypePing    uint64 = 0x01
	frameTypeCrypto  uint64 = 0x06
)

// Frame is a decoded QUIC frame from a decrypted Initial packet payload.
type Frame interface {
	// FrameType returns the wire frame type identifier.
	FrameType() uint64
}

// PaddingFrame is a run of consecutive PADDING frames, collapsed.
type PaddingFrame struct {
	Length int `json:"length"` // number of padding bytes in the run
}

func (*PaddingFrame) FrameType() uint64 { return frameTypePadding }

// PingFrame carries no payload.
type PingFrame struct{}

func (*PingFrame) FrameType() uint64 { return frameTypePing }

// CryptoFrame is a fragment of the TLS handshake byte stream.
type CryptoFrame struct {
	Offset uint64 `json:"offset"`
	Data   []byte `json:"data"`
}

func (*CryptoFrame) FrameType() uint64 { return frameTypeCrypto }

// parseFrames walks the decrypted payload of an Initial packet. Client
// Initials carry PADDING, PING and CRYPTO frames; anything else fails the
// decode, matching the conservative stance of the TLS-side parser.
func parseFrames(payload []byte) ([]Frame, error) {
	c := newCursor(payload)
	var frames []Frame
	for c.remaining() > 0 {
		frameType, err := c.readVarInt("frame type")
		if err != nil {
			return nil, err
		}

		switch frameType {
		case frameTypePadding:
			// collapse the run into one frame
			if last, ok := lastPadding(frames); ok {
				last.Length++
				continue
			}
			frames = append(frames, &PaddingFrame{Length: 1})
		case frameTypePing:
			frames = append(frames, &PingFrame{})
		case frameTypeCrypto:
			offset, err := c.readVarInt("CRYPTO offset")
			if err != nil {
				return nil, err
			}
			length, err := c.readVarInt("CRYPTO length")
			if err != nil {
				return nil, err
			}
			data, err := c.readBytes(int(length), "CRYPTO data")
			if err != nil {
				return nil, err
			}
			frames = append(frames, &CryptoFrame{Offset: offset, Data: data})
		default:
			return nil, fmt.Errorf("unknown frame type: %#02x", frameType)
		}
	}
	return frames, nil
}

func lastPadding(frames []Frame) (*PaddingFrame, bool) {
	if len(frames) == 0 {
		return nil, false
	}
	p, ok := frames[len(frames)-1].(*PaddingFrame)
	return p, ok
}
