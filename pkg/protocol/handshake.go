package protocol

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/crypto/hkdf"
)

var (
	ErrServerHelloTooShort = errors.New("server hello too short")
	ErrHandshakeIncomplete = errors.New("handshake incomplete")
)

// Client finish payload tags
const (
	tagIdentityKey    uint8 = 0x01
	tagRegistrationID uint8 = 0x02
)

// NoiseHandshake is the one-shot handshake state machine negotiated
// with the relay at the start of every connection. It is mutated only
// by its own three steps and discarded once SplitTransportKeys yields
// a session; it must never be reused across connections.
//
// Both ephemeral public keys are folded into a rolling SHA-256
// transcript hash, which binds the derived transport keys to the
// exact bytes exchanged. Note that no elliptic-curve Diffie-Hellman
// mixing of the ephemeral and static keys happens before key
// derivation, so the derived keys depend on the transcript alone.
type NoiseHandshake struct {
	hash      [32]byte // rolling transcript hash
	salt      [32]byte // HKDF salt, seeded from the hashed prologue
	static    *KeyPair // local Noise static key pair
	local     *KeyPair // fresh ephemeral, generated by BuildClientHello
	remote    [32]byte // relay's ephemeral public key
	hasRemote bool
	counter   uint64 // reserved for future symmetric-state use
}

// NewNoiseHandshake creates a handshake seeded from the protocol
// prologue, using the device's Noise static key
func NewNoiseHandshake(static *KeyPair) *NoiseHandshake {
	seed := sha256.Sum256([]byte(HandshakePrologue))
	return &NoiseHandshake{
		hash:   seed,
		salt:   seed,
		static: static,
	}
}

// mixHash folds data into the transcript: hash = SHA256(hash || data)
func (h *NoiseHandshake) mixHash(data []byte) {
	buf := make([]byte, 0, len(h.hash)+len(data))
	buf = append(buf, h.hash[:]...)
	buf = append(buf, data...)
	h.hash = sha256.Sum256(buf)
}

// BuildClientHello generates a fresh ephemeral key pair, folds its
// public bytes into the transcript, and returns the hello frame: a
// 2-byte length header followed by the 32-byte ephemeral public key.
func (h *NoiseHandshake) BuildClientHello() ([]byte, error) {
	ephemeral, err := GenerateKeyPair()
	if err != nil {
		return nil, fmt.Errorf("failed to generate ephemeral key: %w", err)
	}
	h.local = ephemeral
	h.mixHash(ephemeral.PublicKey[:])

	frame := make([]byte, 2+32)
	binary.BigEndian.PutUint16(frame[0:2], 32)
	copy(frame[2:], ephemeral.PublicKey[:])
	return frame, nil
}

// ProcessServerHello consumes the relay's hello. The first 32 bytes
// are the relay's ephemeral public key; shorter input is a protocol
// error that aborts the connection attempt.
func (h *NoiseHandshake) ProcessServerHello(data []byte) error {
	if len(data) < 32 {
		return ErrServerHelloTooShort
	}
	copy(h.remote[:], data[:32])
	h.hasRemote = true
	h.mixHash(h.remote[:])
	return nil
}

// BuildClientFinish encodes the finish payload: a tag/length/value
// record carrying the public identity key followed by one carrying
// the 4-byte little-endian registration id. The transcript hash is
// not mutated further.
func (h *NoiseHandshake) BuildClientFinish(identity *DeviceIdentity) []byte {
	buf := make([]byte, 0, 2+32+2+4)

	buf = append(buf, tagIdentityKey, 32)
	buf = append(buf, identity.IdentityKey.PublicKey[:]...)

	var reg [4]byte
	binary.LittleEndian.PutUint32(reg[:], identity.RegistrationID)
	buf = append(buf, tagRegistrationID, 4)
	buf = append(buf, reg[:]...)

	return buf
}

// SplitTransportKeys derives the two directional transport keys from
// the accumulated transcript: HKDF-SHA256 with the salt as HKDF salt
// and the transcript hash as input key material, expanded to 64 bytes
// under a fixed context label. Bytes 0-31 become the encrypt key and
// bytes 32-63 the decrypt key.
func (h *NoiseHandshake) SplitTransportKeys() (*NoiseSession, error) {
	if !h.hasRemote {
		return nil, ErrHandshakeIncomplete
	}

	reader := hkdf.New(sha256.New, h.hash[:], h.salt[:], []byte(TransportKeyInfo))

	okm := make([]byte, 64)
	if _, err := reader.Read(okm); err != nil {
		return nil, fmt.Errorf("transport key derivation failed: %w", err)
	}

	return NewNoiseSession(okm[0:32], okm[32:64]), nil
}
