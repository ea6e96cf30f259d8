// Package protocol implements the Nimbus wire protocol.
//
// The protocol package defines the device identity, the Noise-style
// handshake and transport session, the binary frame codec, and the
// JID addressing helpers used by the Nimbus multi-device messaging
// client.
//
// # Connection lifecycle
//
// A connection starts with a three-step handshake over the relay
// socket:
//
//  1. Client hello: a fresh ephemeral Curve25519 public key, framed
//     with a 2-byte length header.
//  2. Server hello: the relay's ephemeral public key (at least 32
//     bytes).
//  3. Client finish: a tag/length/value payload carrying the device's
//     public identity key and registration id.
//
// Both ephemeral keys are folded into a rolling SHA-256 transcript
// hash. Once the exchange completes, SplitTransportKeys derives two
// independent AES-256-GCM keys from the transcript via HKDF-SHA256,
// one per direction, and the resulting NoiseSession seals every frame
// exchanged afterwards.
//
// # Frame encoding
//
// Outgoing chat messages are encoded as an ordered sequence of
// tag/length/value records:
//   - 0x0A: message id
//   - 0x12: recipient JID
//   - 0x1A: UTF-8 text content
//   - 0x22: quoted message id (optional)
//
// Values under 128 bytes carry a single length byte; longer values
// use a 2-byte continuation encoding supporting up to 16383 bytes.
//
// Incoming frame decoding is intentionally partial: only the leading
// tag byte is inspected, and unrecognized frames are dropped by the
// dispatch loop.
//
// # Addressing
//
// Contacts are addressed by JID: <digits>@s.whatsapp.net for
// individual users and <id>@g.us for groups. Message ids are a fixed
// 4-character prefix followed by 24 uppercase hex characters.
package protocol
