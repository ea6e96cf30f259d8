package protocol

import (
	"bytes"
	"strings"
	"testing"
)

func TestGenerateDeviceIdentity(t *testing.T) {
	id, err := GenerateDeviceIdentity()
	if err != nil {
		t.Fatalf("GenerateDeviceIdentity() error = %v", err)
	}

	if id.RegistrationID > MaxRegistrationID {
		t.Errorf("RegistrationID = %d, want <= %d", id.RegistrationID, MaxRegistrationID)
	}

	// All key material must be distinct and non-zero
	var zero [32]byte
	keys := map[string][32]byte{
		"identity private": id.IdentityKey.PrivateKey,
		"identity public":  id.IdentityKey.PublicKey,
		"noise private":    id.NoiseKey.PrivateKey,
		"noise public":     id.NoiseKey.PublicKey,
		"prekey private":   id.SignedPreKey.KeyPair.PrivateKey,
		"prekey public":    id.SignedPreKey.KeyPair.PublicKey,
	}
	for name, key := range keys {
		if bytes.Equal(key[:], zero[:]) {
			t.Errorf("%s key is all zeros", name)
		}
	}

	if id.IdentityKey.PublicKey == id.NoiseKey.PublicKey {
		t.Error("identity and noise keys should be independent")
	}

	if id.Platform != DefaultPlatform {
		t.Errorf("Platform = %q, want %q", id.Platform, DefaultPlatform)
	}

	if id.CreatedAt == 0 {
		t.Error("CreatedAt not set")
	}
}

func TestSignedPreKeySignature(t *testing.T) {
	id, err := GenerateDeviceIdentity()
	if err != nil {
		t.Fatalf("GenerateDeviceIdentity() error = %v", err)
	}

	if !VerifySignedPreKey(id.IdentityKey, id.SignedPreKey) {
		t.Error("signed pre-key signature does not verify")
	}

	// Tampering with the pre-key public bytes must break the signature
	tampered := *id.SignedPreKey
	tampered.KeyPair.PublicKey[0] ^= 0xFF
	if VerifySignedPreKey(id.IdentityKey, &tampered) {
		t.Error("tampered pre-key still verifies")
	}
}

func TestGenerateMessageID(t *testing.T) {
	seen := make(map[string]bool)

	for i := 0; i < 100; i++ {
		msgID := GenerateMessageID()

		if !strings.HasPrefix(msgID, MessageIDPrefix) {
			t.Fatalf("message id %q missing prefix %q", msgID, MessageIDPrefix)
		}
		if len(msgID) != len(MessageIDPrefix)+24 {
			t.Fatalf("message id length = %d, want %d", len(msgID), len(MessageIDPrefix)+24)
		}
		if msgID != strings.ToUpper(msgID) {
			t.Fatalf("message id %q is not upper case", msgID)
		}
		if seen[msgID] {
			t.Fatalf("duplicate message id %q", msgID)
		}
		seen[msgID] = true
	}
}
