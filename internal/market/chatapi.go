package market

import (
	"context"

	"github.com/matheus3301/bookchat/internal/chat"
)

// ChatAPI adapts Client to the chat session's view of the marketplace.
type ChatAPI struct {
	Client *Client
}

var _ chat.API = ChatAPI{}

// Contacts implements chat.ContactSource.
func (a ChatAPI) Contacts(ctx context.Context, username string) ([]chat.Contact, error) {
	dtos, err := a.Client.ListContacts(ctx, username)
	if err != nil {
		return nil, err
	}
	out := make([]chat.Contact, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, chat.Contact{Username: d.Username})
	}
	return out, nil
}

// History implements chat.HistorySource.
func (a ChatAPI) History(ctx context.Context, sender, receiver string) ([]chat.Message, error) {
	wire, err := a.Client.GetHistory(ctx, sender, receiver)
	if err != nil {
		return nil, err
	}
	out := make([]chat.Message, 0, len(wire))
	for _, m := range wire {
		out = append(out, FromWire(m))
	}
	return out, nil
}

// SendMessage implements chat.MessageSender.
func (a ChatAPI) SendMessage(ctx context.Context, m chat.Message) error {
	_, err := a.Client.PostMessage(ctx, ToWire(m))
	return err
}

// ToWire converts a chat message to its wire form.
func ToWire(m chat.Message) ChatMessage {
	return ChatMessage{
		ClientMsgID: m.ClientMsgID,
		SenderID:    m.Sender,
		ReceiverID:  m.Receiver,
		Message:     m.Body,
		Timestamp:   m.Timestamp,
	}
}

// FromWire converts a wire message to a chat message.
func FromWire(m ChatMessage) chat.Message {
	return chat.Message{
		ClientMsgID: m.ClientMsgID,
		Sender:      m.SenderID,
		Receiver:    m.ReceiverID,
		Body:        m.Message,
		Timestamp:   m.Timestamp.UTC(),
	}
}
