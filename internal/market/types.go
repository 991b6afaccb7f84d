package market

import (
	"fmt"
	"time"
)

// ChatMessage is the wire form of a chat message as exchanged with the
// marketplace chat endpoints.
type ChatMessage struct {
	ID          int64     `json:"ID,omitempty"`
	ClientMsgID string    `json:"ClientMsgID,omitempty"`
	SenderID    string    `json:"SenderID"`
	ReceiverID  string    `json:"ReceiverID"`
	Message     string    `json:"Message"`
	Timestamp   time.Time `json:"Timestamp"`
}

// ContactDTO is one entry of the contact list endpoint.
type ContactDTO struct {
	Username string `json:"Username"`
}

// APIError is returned for non-2xx responses.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("marketplace %s %s: status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("marketplace %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}
