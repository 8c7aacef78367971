package models

import (
	"crypto/sha256"
	"encoding/hex"
)

const (
	EventSession = "session"
	EventRecord  = "record"

	StateSignedIn  = "signed_in"
	StateSignedOut = "signed_out"

	ReasonLogout  = "logout"
	ReasonExpired = "expired"
)

// SessionEvent is pushed to a user's live channel.
type SessionEvent struct {
	Type    string `json:"type"`
	State   string `json:"state,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Session string `json:"session,omitempty"`

	Date   string `json:"date,omitempty"`
	Prayer string `json:"prayer,omitempty"`
	Value  *bool  `json:"value,omitempty"`
}

// SessionID derives a public identifier from a refresh token. Clients use
// it to tell whether a signed_out event concerns their own session.
func SessionID(refreshToken string) string {
	sum := sha256.Sum256([]byte(refreshToken))
	return hex.EncodeToString(sum[:8])
}
