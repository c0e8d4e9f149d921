package clienthello

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"errors"

	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/hkdf"
)

// quicV1InitialSalt is the version 1 salt from RFC 9001 section 5.2.
var quicV1InitialSalt = []byte{
	0x38, 0x76, 0x2c, 0xf7,
	0xf5, 0x59, 0x34, 0xb3,
	0x4d, 0x17, 0x9a, 0xe6,
	0xa4, 0xc8, 0x0c, 0xad,
	0xcc, 0xbb, 0x7f, 0x0a,
}

// ClientInitialKeys derives the client Initial packet protection secrets
// from the Destination Connection ID of the first packet, per RFC 9001
// section 5. These keys are public knowledge (the salt is fixed), which is
// what makes passive ClientHello extraction from QUIC possible.
func ClientInitialKeys(dcid []byte) (key, iv, hpKey []byte, err error) {
	initialSecret := hkdf.Extract(sha256.New, dcid, quicV1InitialSalt)

	clientSecret, err := hkdfExpandLabel(initialSecret, "client in", nil, 32)
	if err != nil {
		return nil, nil, nil, err
	}
	if key, err = hkdfExpandLabel(clientSecret, "quic key", nil, 16); err != nil {
		return nil, nil, nil, err
	}
	if iv, err = hkdfExpandLabel(clientSecret, "quic iv", nil, 12); err != nil {
		return nil, nil, nil, err
	}
	if hpKey, err = hkdfExpandLabel(clientSecret, "quic hp", nil, 16); err != nil {
		return nil, nil, nil, err
	}
	return key, iv, hpKey, nil
}

// hkdfExpandLabel implements HKDF-Expand-Label from RFC 8446 section 7.1.
func hkdfExpandLabel(secret []byte, label string, context []byte, length uint16) ([]byte, error) {
	var hkdfLabel cryptobyte.Builder
	hkdfLabel.AddUint16(length)
	hkdfLabel.AddUint8LengthPrefixed(func(b *cryptobyte.Builder) {
		b.AddBytes([]byte("tls13 "))
		b.AddBytes([]byte(label))
	})
	hkdfLabel.AddUint8LengthPrefixed(func(b *cryptobyte.Builder) {
		b.AddBytes(context)
	})
	info, err := hkdfLabel.Bytes()
	if err != nil {
		return nil, err
	}

	out := make([]byte, length)
	if _, err := hkdf.Expand(sha256.New, secret, info).Read(out); err != nil {
		return nil, err
	}
	return out, nil
}

// headerProtection computes the 5-byte header protection mask: AES-ECB of
// a 16-byte ciphertext sample under the hp key (RFC 9001 section 5.4.3).
func headerProtection(hpKey, sample []byte) ([]byte, error) {
	if len(hpKey) != 16 || len(sample) != 16 {
		return nil, errors.New("header protection requires a 16-byte key and sample")
	}

	block, err := aes.NewCipher(hpKey)
	if err != nil {
		return nil, err
	}
	mask := make([]byte, 16)
	block.Encrypt(mask, sample)
	return mask[:5], nil
}

// decryptInitialPayload opens the AES-128-GCM protected packet payload.
// header is the unprotected packet header (additional data); packetNumber
// is XORed into the tail of the IV as the nonce.
func decryptInitialPayload(key, iv []byte, packetNumber uint64, ciphertext, header []byte) ([]byte, error) {
	if len(key) != 16 || len(iv) != 12 {
		return nil, errors.New("invalid AEAD key or IV length")
	}

	nonce := make([]byte, 12)
	copy(nonce, iv)
	for i := 0; i < 8; i++ {
		nonce[11-i] ^= byte(packetNumber >> (i * 8))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return aead.Open(nil, nonce, ciphertext, header)
}
