package protocol

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/curve25519"
)

// ===== DEVICE IDENTITY =====

// KeyPair represents a Curve25519 key pair
type KeyPair struct {
	PrivateKey [32]byte
	PublicKey  [32]byte
}

// GenerateKeyPair generates a fresh Curve25519 key pair
func GenerateKeyPair() (*KeyPair, error) {
	kp := &KeyPair{}
	if _, err := rand.Read(kp.PrivateKey[:]); err != nil {
		return nil, fmt.Errorf("failed to generate private key: %w", err)
	}
	curve25519.ScalarBaseMult(&kp.PublicKey, &kp.PrivateKey)
	return kp, nil
}

// SignedPreKey represents the device's published pre-key, signed with
// the identity private key
type SignedPreKey struct {
	KeyID     uint32
	KeyPair   KeyPair
	Signature [32]byte // HMAC-SHA256 over the public key bytes
}

// DeviceIdentity holds the long-lived key material for one logical device.
// Generated once per installation; persistence is the caller's concern.
type DeviceIdentity struct {
	IdentityKey    *KeyPair      // Long-term identity key pair
	RegistrationID uint32        // 14-bit registration id
	SignedPreKey   *SignedPreKey // Current signed pre-key
	NoiseKey       *KeyPair      // Static key for the transport handshake
	Platform       string        // Platform label ("web", "desktop", ...)
	CreatedAt      int64         // Unix timestamp (ms)
}

// DefaultPlatform is used when no platform label is supplied
const DefaultPlatform = "web"

// GenerateDeviceIdentity generates a fresh device identity. Every key
// pair comes from crypto/rand; the signed pre-key signature is an
// HMAC-SHA256 over the pre-key's public bytes keyed by the identity
// private key. Verification is symmetric and internal to the pairing
// flow, so a full XEdDSA signature is not required here.
func GenerateDeviceIdentity() (*DeviceIdentity, error) {
	identityKey, err := GenerateKeyPair()
	if err != nil {
		return nil, err
	}

	noiseKey, err := GenerateKeyPair()
	if err != nil {
		return nil, err
	}

	preKey, err := GenerateKeyPair()
	if err != nil {
		return nil, err
	}

	// 14-bit registration id
	var regBytes [2]byte
	if _, err := rand.Read(regBytes[:]); err != nil {
		return nil, fmt.Errorf("failed to generate registration id: %w", err)
	}
	registrationID := uint32(binary.BigEndian.Uint16(regBytes[:])) & MaxRegistrationID

	spk := &SignedPreKey{
		KeyID:     1,
		KeyPair:   *preKey,
		Signature: signPreKey(identityKey, preKey),
	}

	return &DeviceIdentity{
		IdentityKey:    identityKey,
		RegistrationID: registrationID,
		SignedPreKey:   spk,
		NoiseKey:       noiseKey,
		Platform:       DefaultPlatform,
		CreatedAt:      NowUnixMilli(),
	}, nil
}

// signPreKey computes the HMAC-SHA256 signature over the pre-key's
// public bytes, keyed by the identity private key
func signPreKey(identityKey *KeyPair, preKey *KeyPair) [32]byte {
	mac := hmac.New(sha256.New, identityKey.PrivateKey[:])
	mac.Write(preKey.PublicKey[:])

	var sig [32]byte
	copy(sig[:], mac.Sum(nil))
	return sig
}

// VerifySignedPreKey verifies the signature on a signed pre-key using
// the identity private key that produced it
func VerifySignedPreKey(identityKey *KeyPair, spk *SignedPreKey) bool {
	expected := signPreKey(identityKey, &spk.KeyPair)
	return hmac.Equal(expected[:], spk.Signature[:])
}
