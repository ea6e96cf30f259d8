package network

import (
	"log"

	"github.com/NimbusChat/nimbus-client/pkg/protocol"
)

// Thin request builders. Each constructs the request it will issue
// once the relay's query round-trip is wired, logs its shape, and
// returns a placeholder result. All require a live session.

// GroupMetadata describes a group chat
type GroupMetadata struct {
	JID          string
	Subject      string
	Owner        string
	Participants []string
	CreatedAt    int64
}

// hasSession reports whether a live session is installed
func (c *Client) hasSession() bool {
	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()
	return c.session != nil && c.conn != nil
}

// SendReaction sends an emoji reaction to a previously received message
func (c *Client) SendReaction(chatJID, targetID, emoji string) error {
	if !c.hasSession() {
		return ErrNotConnected
	}
	log.Printf("Reaction request: chat=%s target=%s emoji=%s", chatJID, targetID, emoji)
	return nil
}

// MarkRead marks messages in a chat as read
func (c *Client) MarkRead(chatJID string, messageIDs []string) error {
	if !c.hasSession() {
		return ErrNotConnected
	}
	log.Printf("Read receipt request: chat=%s ids=%v", chatJID, messageIDs)
	return nil
}

// SendPresence reports typing state to a chat
func (c *Client) SendPresence(chatJID string, typing bool) error {
	if !c.hasSession() {
		return ErrNotConnected
	}
	log.Printf("Presence request: chat=%s typing=%v", chatJID, typing)
	return nil
}

// SetAvailability sets the device's global availability
func (c *Client) SetAvailability(available bool) error {
	if !c.hasSession() {
		return ErrNotConnected
	}
	log.Printf("Availability request: available=%v", available)
	return nil
}

// GetGroupMetadata queries a group's metadata
func (c *Client) GetGroupMetadata(groupJID string) (*GroupMetadata, error) {
	if !c.hasSession() {
		return nil, ErrNotConnected
	}
	log.Printf("Group metadata request: group=%s", protocol.GroupToJID(groupJID))
	return &GroupMetadata{JID: protocol.GroupToJID(groupJID)}, nil
}

// GetGroupParticipants queries a group's participant list
func (c *Client) GetGroupParticipants(groupJID string) ([]string, error) {
	if !c.hasSession() {
		return nil, ErrNotConnected
	}
	log.Printf("Group participants request: group=%s", protocol.GroupToJID(groupJID))
	return []string{}, nil
}

// GetProfilePicture queries the profile picture URL for a JID
func (c *Client) GetProfilePicture(jid string) (string, error) {
	if !c.hasSession() {
		return "", ErrNotConnected
	}
	log.Printf("Profile picture request: jid=%s", jid)
	return "", nil
}

// GetStatus queries the status text for a JID
func (c *Client) GetStatus(jid string) (string, error) {
	if !c.hasSession() {
		return "", ErrNotConnected
	}
	log.Printf("Status request: jid=%s", jid)
	return "", nil
}
