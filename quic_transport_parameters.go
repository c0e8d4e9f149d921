package clienthello

import (
	"github.com/refraction-networking/utls/dicttls"
	"golang.org/x/exp/slices"

	"github.com/tlsmirror/clienthello/internal/utils"
)

// greasePlaceholderTP replaces reserved transport parameter IDs in the ID
// list; 27 is the first reserved value of the 31*N+27 family.
const greasePlaceholderTP uint64 = 27

// QUICTransportParameters is the dissected quic_transport_parameters(57)
// extension body. Well-known parameter values are kept with their
// variable-length-integer length bits cleared; everything else contributes
// only its ID.
type QUICTransportParameters struct {
	MaxIdleTimeout                 utils.Uint8Arr `json:"max_idle_timeout,omitempty"`
	MaxUDPPayloadSize              utils.Uint8Arr `json:"max_udp_payload_size,omitempty"`
	InitialMaxData                 utils.Uint8Arr `json:"initial_max_data,omitempty"`
	InitialMaxStreamDataBidiLocal  utils.Uint8Arr `json:"initial_max_stream_data_bidi_local,omitempty"`
	InitialMaxStreamDataBidiRemote utils.Uint8Arr `json:"initial_max_stream_data_bidi_remote,omitempty"`
	InitialMaxStreamDataUni        utils.Uint8Arr `json:"initial_max_stream_data_uni,omitempty"`
	InitialMaxStreamsBidi          utils.Uint8Arr `json:"initial_max_streams_bidi,omitempty"`
	InitialMaxStreamsUni           utils.Uint8Arr `json:"initial_max_streams_uni,omitempty"`
	AckDelayExponent               utils.Uint8Arr `json:"ack_delay_exponent,omitempty"`
	MaxAckDelay                    utils.Uint8Arr `json:"max_ack_delay,omitempty"`
	ActiveConnectionIDLimit        utils.Uint8Arr `json:"active_connection_id_limit,omitempty"`

	// IDs holds every parameter ID observed, sorted, reserved values
	// collapsed to greasePlaceholderTP.
	IDs []uint64 `json:"ids,omitempty"`
}

// ParseQUICTransportParameters walks the id/length/value sequence of the
// transport parameters extension body.
func ParseQUICTransportParameters(body []byte) (*QUICTransportParameters, error) {
	qtp := &QUICTransportParameters{}

	c := newCursor(body)
	for c.remaining() > 0 {
		id, err := c.readVarInt("transport parameter ID")
		if err != nil {
			return nil, err
		}
		valLen, err := c.readVarInt("transport parameter length")
		if err != nil {
			return nil, err
		}
		val, err := c.readBytes(int(valLen), "transport parameter value")
		if err != nil {
			return nil, err
		}

		if IsGREASETransportParameter(id) {
			qtp.IDs = append(qtp.IDs, greasePlaceholderTP)
		} else {
			qtp.IDs = append(qtp.IDs, id)
		}

		if len(val) == 0 {
			continue
		}

		switch id {
		case dicttls.QUICTransportParameter_max_idle_timeout:
			qtp.MaxIdleTimeout = copyWithoutVLIBits(val)
		case dicttls.QUICTransportParameter_max_udp_payload_size:
			qtp.MaxUDPPayloadSize = copyWithoutVLIBits(val)
		case dicttls.QUICTransportParameter_initial_max_data:
			qtp.InitialMaxData = copyWithoutVLIBits(val)
		case dicttls.QUICTransportParameter_initial_max_stream_data_bidi_local:
			qtp.InitialMaxStreamDataBidiLocal = copyWithoutVLIBits(val)
		case dicttls.QUICTransportParameter_initial_max_stream_data_bidi_remote:
			qtp.InitialMaxStreamDataBidiRemote = copyWithoutVLIBits(val)
		case dicttls.QUICTransportParameter_initial_max_stream_data_uni:
			qtp.InitialMaxStreamDataUni = copyWithoutVLIBits(val)
		case dicttls.QUICTransportParameter_initial_max_streams_bidi:
			qtp.InitialMaxStreamsBidi = copyWithoutVLIBits(val)
		case dicttls.QUICTransportParameter_initial_max_streams_uni:
			qtp.InitialMaxStreamsUni = copyWithoutVLIBits(val)
		case dicttls.QUICTransportParameter_ack_delay_exponent:
			qtp.AckDelayExponent = copyWithoutVLIBits(val)
		case dicttls.QUICTransportParameter_max_ack_delay:
			qtp.MaxAckDelay = copyWithoutVLIBits(val)
		case dicttls.QUICTransportParameter_active_connection_id_limit:
			qtp.ActiveConnectionIDLimit = copyWithoutVLIBits(val)
		}
	}

	slices.Sort(qtp.IDs)
	return qtp, nil
}

// copyWithoutVLIBits copies a parameter value and clears the two length
// bits of its leading variable-length integer, so that equal values encoded
// at different widths stay comparable.
func copyWithoutVLIBits(val []byte) utils.Uint8Arr {
	out := make(utils.Uint8Arr, len(val))
	copy(out, val)
	out[0] &= 0x3f
	return out
}
