package utils

import (
	"fmt"
	"strings"
)

// Uint8Arr makes a []uint8 marshal to JSON as a list of numbers instead of
// a base64 string.
type Uint8Arr []uint8

func (u Uint8Arr) MarshalJSON() ([]byte, error) {
	if u == nil {
		return []byte("[]"), nil
	}
	return []byte(strings.Join(strings.Fields(fmt.Sprintf("%d", u)), ",")), nil
}

// Uint16ToUint8 flattens a []uint16 into big-endian bytes.
func Uint16ToUint8(a []uint16) []uint8 {
	b := make([]uint8, 0, 2*len(a))
	for _, v := range a {
		b = append(b, uint8(v>>8), uint8(v))
	}
	return b
}
