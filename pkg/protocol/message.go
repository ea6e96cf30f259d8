package protocol

// ===== CHAT MESSAGES =====

// MediaReference points at an uploaded media payload. Only the
// encryption parameters are handled by this module; the upload and
// download transport lives elsewhere.
type MediaReference struct {
	URL      string // Location of the uploaded ciphertext
	MediaKey []byte // 32-byte media key
	FileSHA  []byte // SHA-256 of the ciphertext
	MimeType string
	FileSize uint64
}

// IncomingMessage describes one chat message received from the relay
type IncomingMessage struct {
	From        string      // Sender JID
	ID          string      // Message id
	Timestamp   int64       // Unix timestamp (ms)
	Body        string      // Text content
	Type        MessageType // Content type
	Media       *MediaReference
	GroupJID    string // Set when the message arrived in a group
	Participant string // Sender within the group
	QuotedID    string // Message being replied to
}

// OutgoingMessage describes one chat message to be sent
type OutgoingMessage struct {
	To        string      // Recipient JID (user or group)
	ID        string      // Message id, generated when empty
	Timestamp int64       // Unix timestamp (ms)
	Body      string      // Text content
	Type      MessageType // Content type
	Media     *MediaReference
	QuotedID  string // Message being replied to
}
