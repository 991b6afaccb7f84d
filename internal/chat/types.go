// Package chat implements the marketplace chat session: the contact
// registry, per-conversation history, the single active chat window and the
// session controller that orchestrates widget visibility.
package chat

import (
	"context"
	"time"
)

// User is the signed-in marketplace user as supplied by the identity provider.
type User struct {
	ID       string
	Username string
}

// Contact is a counterpart the current user can chat with.
type Contact struct {
	Username string
}

// Message is a single chat message. Messages are immutable once created.
type Message struct {
	ClientMsgID string
	Sender      string
	Receiver    string
	Body        string
	Timestamp   time.Time
}

// Key returns the conversation the message belongs to.
func (m Message) Key() ConversationKey {
	return NewConversationKey(m.Sender, m.Receiver)
}

// ConversationKey identifies the conversation between two users regardless
// of direction. A is always the lexicographically smaller username.
type ConversationKey struct {
	A string
	B string
}

// NewConversationKey normalizes an unordered username pair.
func NewConversationKey(x, y string) ConversationKey {
	if y < x {
		x, y = y, x
	}
	return ConversationKey{A: x, B: y}
}

func (k ConversationKey) String() string {
	return k.A + "<>" + k.B
}

// Identity supplies the current user. ok is false when nobody is signed in,
// in which case chat is unavailable.
type Identity interface {
	CurrentUser() (u User, ok bool)
}

// ContactSource lists the server-side contacts of a user.
type ContactSource interface {
	Contacts(ctx context.Context, username string) ([]Contact, error)
}

// HistorySource returns the messages exchanged between two users in
// chronological order.
type HistorySource interface {
	History(ctx context.Context, sender, receiver string) ([]Message, error)
}

// MessageSender submits an outgoing message to the marketplace.
type MessageSender interface {
	SendMessage(ctx context.Context, m Message) error
}

// API is the subset of the marketplace API the chat session consumes.
type API interface {
	ContactSource
	HistorySource
	MessageSender
}
