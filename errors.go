package clienthello

import "fmt"

// InputTooShortError is returned by Parse and ParseRecord when the input
// buffer is smaller than the absolute minimum viable size, before any
// field-by-field decoding begins.
type InputTooShortError struct {
	Need int `json:"need"`
	Have int `json:"have"`
}

func (e *InputTooShortError) Error() string {
	return fmt.Sprintf("input too short: need %d bytes, have %d", e.Need, e.Have)
}

// UnexpectedContentTypeError is returned by ParseRecord when the record
// content type byte is not Handshake (0x16).
type UnexpectedContentTypeError struct {
	Actual byte `json:"actual"`
}

func (e *UnexpectedContentTypeError) Error() string {
	return fmt.Sprintf("unexpected content type: expected 0x16 (Handshake), got %#02x", e.Actual)
}

// UnexpectedHandshakeTypeError is returned by Parse when the handshake
// message type byte is not ClientHello (0x01).
type UnexpectedHandshakeTypeError struct {
	Actual byte `json:"actual"`
}

func (e *UnexpectedHandshakeTypeError) Error() string {
	return fmt.Sprintf("unexpected handshake type: expected 0x01 (ClientHello), got %#02x", e.Actual)
}

// TruncatedError is returned by every mid-structure bounds check. Field
// names exactly which field could not be fully read.
type TruncatedError struct {
	Field string `json:"field"`
}

func (e *TruncatedError) Error() string {
	return "truncated " + e.Field
}
