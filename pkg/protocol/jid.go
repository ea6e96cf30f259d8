package protocol

import "strings"

// ===== JID HELPERS =====

// PhoneToJID converts a phone number to a user JID. All non-digit
// characters are stripped before the server suffix is appended.
func PhoneToJID(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String() + UserServerSuffix
}

// GroupToJID converts a group id to a group JID. Inputs that already
// contain an '@' are returned unchanged.
func GroupToJID(groupID string) string {
	if strings.Contains(groupID, "@") {
		return groupID
	}
	return groupID + GroupSuffix
}

// JIDToPhone returns the local part of a JID prefixed with '+'
func JIDToPhone(jid string) string {
	local, _, _ := strings.Cut(jid, "@")
	return "+" + local
}

// IsGroupJID reports whether jid addresses a group
func IsGroupJID(jid string) bool {
	return strings.HasSuffix(jid, GroupSuffix)
}
