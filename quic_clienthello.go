package clienthello

import (
	"encoding/binary"
	"errors"
	"io"
)

// QUICClientHello is a ClientHello recovered from QUIC CRYPTO frames,
// together with the QUIC transport parameters extension (0x0039) that TLS
// alone leaves opaque.
type QUICClientHello struct {
	ClientHello

	TransportParameters *QUICTransportParameters `json:"transport_parameters,omitempty"`
}

// extTypeQUICTransportParameters is quic_transport_parameters(57); the core
// dispatcher leaves it as UnknownExtension, the QUIC layer dissects it.
const extTypeQUICTransportParameters uint16 = 0x0039

// ParseQUICClientHello decodes a reassembled CRYPTO stream. The input is a
// bare handshake message, no record layer, exactly what Parse expects.
func ParseQUICClientHello(p []byte) (*QUICClientHello, error) {
	ch, err := Parse(p)
	if err != nil {
		return nil, err
	}

	qch := &QUICClientHello{ClientHello: *ch}
	if body, ok := ch.FindExtension(extTypeQUICTransportParameters); ok {
		if qch.TransportParameters, err = ParseQUICTransportParameters(body); err != nil {
			return nil, err
		}
	}
	return qch, nil
}

var (
	ErrDuplicateFragment = errors.New("duplicate CRYPTO fragment")
	ErrOverlapFragment   = errors.New("overlapping CRYPTO fragment")
	ErrTooManyFragments  = errors.New("too many pending CRYPTO fragments")
	ErrFragmentTooFar    = errors.New("CRYPTO fragment beyond maximum handshake size")
	ErrNeedMoreFrames    = errors.New("need more CRYPTO frames")
)

const (
	maxPendingFragments = 32
	maxHandshakeLen     = 0x10000
)

// ClientHelloReconstructor reassembles the TLS handshake byte stream from
// CRYPTO frames, which browsers routinely split out of order and across
// multiple Initial packets.
type ClientHelloReconstructor struct {
	fullLen uint32 // from the 4-byte handshake header, once seen
	buf     []byte

	pending map[uint64][]byte // offset -> fragment not yet contiguous
}

func NewClientHelloReconstructor() *ClientHelloReconstructor {
	return &ClientHelloReconstructor{
		pending: make(map[uint64][]byte),
	}
}

// AddFragment adds one CRYPTO fragment. It returns io.EOF once the
// handshake message is complete, nil while more data is expected, and a
// reassembly error for fragments that cannot belong to a well-formed
// stream.
func (r *ClientHelloReconstructor) AddFragment(offset uint64, frag []byte) error {
	if _, ok := r.pending[offset]; ok {
		return ErrDuplicateFragment
	}
	for off, f := range r.pending {
		if (off < offset && off+uint64(len(f)) > offset) ||
			(offset < off && offset+uint64(len(frag)) > off) {
			return ErrOverlapFragment
		}
	}
	if offset < uint64(len(r.buf)) {
		return ErrOverlapFragment
	}
	if len(r.pending) >= maxPendingFragments {
		return ErrTooManyFragments
	}
	if offset+uint64(len(frag)) > maxHandshakeLen {
		return ErrFragmentTooFar
	}

	r.pending[offset] = frag

	// absorb whatever is now contiguous
	for {
		f, ok := r.pending[uint64(len(r.buf))]
		if !ok {
			break
		}
		delete(r.pending, uint64(len(r.buf)))
		r.buf = append(r.buf, f...)
	}

	// the expected total becomes known once the 4-byte handshake header
	// has been reassembled
	if r.fullLen == 0 && len(r.buf) >= 4 {
		r.fullLen = binary.BigEndian.Uint32([]byte{0, r.buf[1], r.buf[2], r.buf[3]}) + 4
		if r.fullLen > maxHandshakeLen {
			return ErrFragmentTooFar
		}
	}

	if r.fullLen > 0 && uint32(len(r.buf)) >= r.fullLen {
		return io.EOF
	}
	return nil
}

// FromFrames feeds every CRYPTO frame of a packet into the reconstructor.
// Returns nil once the handshake message is complete, ErrNeedMoreFrames
// when still incomplete.
func (r *ClientHelloReconstructor) FromFrames(frames []Frame) error {
	for _, f := range frames {
		if cf, ok := f.(*CryptoFrame); ok {
			if err := r.AddFragment(cf.Offset, cf.Data); err != nil {
				if errors.Is(err, io.EOF) {
					return nil
				}
				return err
			}
		}
	}
	return ErrNeedMoreFrames
}

// ReconstructAsBytes returns the complete handshake message, or nil while
// incomplete.
func (r *ClientHelloReconstructor) ReconstructAsBytes() []byte {
	if r.fullLen == 0 || uint32(len(r.buf)) < r.fullLen {
		return nil
	}
	return r.buf[:r.fullLen]
}

// Reconstruct decodes the reassembled handshake message.
func (r *ClientHelloReconstructor) Reconstruct() (*QUICClientHello, error) {
	b := r.ReconstructAsBytes()
	if len(b) == 0 {
		return nil, ErrNeedMoreFrames
	}
	return ParseQUICClientHello(b)
}
