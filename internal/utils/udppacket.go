package utils

import (
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// ParseUDPPacket decodes the UDP layer from a raw IP payload.
func ParseUDPPacket(buf []byte) (*layers.UDP, error) {
	udp := &layers.UDP{}
	if err := udp.DecodeFromBytes(buf, gopacket.NilDecodeFeedback); err != nil {
		return nil, err
	}
	return udp, nil
}
