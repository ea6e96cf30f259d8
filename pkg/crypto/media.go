// Package crypto provides the standalone cryptographic transforms used
// by the Nimbus client, independent of any live transport session.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	// Media keys are 32 bytes, generated fresh per transfer
	MediaKeySize = 32

	// HKDF expansion size: 16-byte IV + 32-byte cipher key + 64 bytes
	// reserved for the MAC and reference keys of the full upload flow
	mediaExpandSize = 112
)

// MediaType selects the HKDF info string for a media transfer. Both
// sides must agree on the type or decryption fails authentication.
type MediaType string

const (
	MediaImage    MediaType = "image"
	MediaVideo    MediaType = "video"
	MediaAudio    MediaType = "audio"
	MediaPTT      MediaType = "ptt"
	MediaDocument MediaType = "document"
	MediaSticker  MediaType = "sticker"
)

// hkdfInfo returns the derivation label for a media type. Each type
// gets its own label except ptt, which shares the audio label; unknown
// types fall back to the document label.
func (t MediaType) hkdfInfo() string {
	switch t {
	case MediaImage:
		return "WhatsApp Image Keys"
	case MediaVideo:
		return "WhatsApp Video Keys"
	case MediaAudio, MediaPTT:
		return "WhatsApp Audio Keys"
	case MediaDocument:
		return "WhatsApp Document Keys"
	case MediaSticker:
		return "WhatsApp Sticker Keys"
	default:
		return "WhatsApp Document Keys"
	}
}

// EncryptedMedia is the result of one EncryptMedia call
type EncryptedMedia struct {
	Ciphertext []byte // Sealed payload
	MediaKey   []byte // Fresh 32-byte key, shared out-of-band
	FileSHA    []byte // SHA-256 of the ciphertext
}

// EncryptMedia seals a media payload under a fresh random media key.
// The per-transfer IV and AES-256-GCM key are expanded from the media
// key with HKDF-SHA256 using the media type's info string.
func EncryptMedia(plaintext []byte, mediaType MediaType) (*EncryptedMedia, error) {
	mediaKey := make([]byte, MediaKeySize)
	if _, err := rand.Read(mediaKey); err != nil {
		return nil, fmt.Errorf("failed to generate media key: %w", err)
	}

	gcm, nonce, err := deriveMediaCipher(mediaKey, mediaType)
	if err != nil {
		return nil, err
	}

	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)
	digest := sha256.Sum256(ciphertext)

	return &EncryptedMedia{
		Ciphertext: ciphertext,
		MediaKey:   mediaKey,
		FileSHA:    digest[:],
	}, nil
}

// DecryptMedia re-derives the IV and key from the supplied media key
// and opens the ciphertext. A wrong key or a mismatched media type
// fails authentication rather than returning wrong plaintext.
func DecryptMedia(ciphertext, mediaKey []byte, mediaType MediaType) ([]byte, error) {
	if len(mediaKey) != MediaKeySize {
		return nil, fmt.Errorf("invalid media key size: expected %d, got %d", MediaKeySize, len(mediaKey))
	}

	gcm, nonce, err := deriveMediaCipher(mediaKey, mediaType)
	if err != nil {
		return nil, err
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("media decryption failed (wrong key or media type): %w", err)
	}
	return plaintext, nil
}

// deriveMediaCipher expands the media key into the per-transfer
// material: bytes 0-15 are the IV (first 12 used as the GCM nonce)
// and bytes 16-47 the AES-256 key. No salt is used; the media key
// itself is fresh per transfer.
func deriveMediaCipher(mediaKey []byte, mediaType MediaType) (cipher.AEAD, []byte, error) {
	reader := hkdf.New(sha256.New, mediaKey, nil, []byte(mediaType.hkdfInfo()))

	expanded := make([]byte, mediaExpandSize)
	if _, err := io.ReadFull(reader, expanded); err != nil {
		return nil, nil, fmt.Errorf("media key expansion failed: %w", err)
	}

	iv := expanded[0:16]
	key := expanded[16:48]

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return gcm, iv[:12], nil
}
