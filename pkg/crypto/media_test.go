package crypto

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"testing"
)

func TestMediaRoundTrip(t *testing.T) {
	payload := make([]byte, 4096)
	if _, err := rand.Read(payload); err != nil {
		t.Fatal(err)
	}

	types := []MediaType{MediaImage, MediaVideo, MediaAudio, MediaPTT, MediaDocument, MediaSticker}

	for _, mediaType := range types {
		t.Run(string(mediaType), func(t *testing.T) {
			enc, err := EncryptMedia(payload, mediaType)
			if err != nil {
				t.Fatalf("EncryptMedia() error = %v", err)
			}

			if len(enc.MediaKey) != MediaKeySize {
				t.Errorf("media key size = %d, want %d", len(enc.MediaKey), MediaKeySize)
			}
			if bytes.Equal(enc.Ciphertext, payload) {
				t.Error("ciphertext equals plaintext")
			}

			digest := sha256.Sum256(enc.Ciphertext)
			if !bytes.Equal(enc.FileSHA, digest[:]) {
				t.Error("FileSHA does not match ciphertext digest")
			}

			decrypted, err := DecryptMedia(enc.Ciphertext, enc.MediaKey, mediaType)
			if err != nil {
				t.Fatalf("DecryptMedia() error = %v", err)
			}
			if !bytes.Equal(decrypted, payload) {
				t.Error("round trip mismatch")
			}
		})
	}
}

func TestMediaKeysAreFreshPerCall(t *testing.T) {
	payload := []byte("same payload twice")

	first, err := EncryptMedia(payload, MediaImage)
	if err != nil {
		t.Fatal(err)
	}
	second, err := EncryptMedia(payload, MediaImage)
	if err != nil {
		t.Fatal(err)
	}

	if bytes.Equal(first.MediaKey, second.MediaKey) {
		t.Error("two encryptions reused the same media key")
	}
	if bytes.Equal(first.Ciphertext, second.Ciphertext) {
		t.Error("two encryptions produced identical ciphertext")
	}
}

func TestDecryptMediaWrongKey(t *testing.T) {
	enc, err := EncryptMedia([]byte("secret voice note"), MediaPTT)
	if err != nil {
		t.Fatal(err)
	}

	wrongKey := make([]byte, MediaKeySize)
	if _, err := rand.Read(wrongKey); err != nil {
		t.Fatal(err)
	}

	if _, err := DecryptMedia(enc.Ciphertext, wrongKey, MediaPTT); err == nil {
		t.Error("decryption with a wrong key succeeded")
	}
}

func TestDecryptMediaWrongType(t *testing.T) {
	enc, err := EncryptMedia([]byte("a picture"), MediaImage)
	if err != nil {
		t.Fatal(err)
	}

	// Different info string, different derived keys: must fail closed
	if _, err := DecryptMedia(enc.Ciphertext, enc.MediaKey, MediaVideo); err == nil {
		t.Error("decryption with a mismatched media type succeeded")
	}
}

func TestDecryptMediaInvalidKeySize(t *testing.T) {
	if _, err := DecryptMedia([]byte("junk"), []byte("short"), MediaImage); err == nil {
		t.Error("short media key accepted")
	}
}

func TestStickerTypeIsDistinct(t *testing.T) {
	// Stickers derive under their own label; a sticker ciphertext must
	// not open when requested as an image
	enc, err := EncryptMedia([]byte("webp sticker bytes"), MediaSticker)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := DecryptMedia(enc.Ciphertext, enc.MediaKey, MediaImage); err == nil {
		t.Error("sticker ciphertext opened under the image label")
	}
	if _, err := DecryptMedia(enc.Ciphertext, enc.MediaKey, MediaSticker); err != nil {
		t.Errorf("sticker ciphertext did not open under its own label: %v", err)
	}
}

func TestPTTSharesAudioKeys(t *testing.T) {
	// Push-to-talk notes are audio; both labels derive the same keys
	enc, err := EncryptMedia([]byte("voice note bytes"), MediaPTT)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := DecryptMedia(enc.Ciphertext, enc.MediaKey, MediaAudio); err != nil {
		t.Errorf("ptt ciphertext did not open under the audio label: %v", err)
	}
}
