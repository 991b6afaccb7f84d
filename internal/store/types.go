package store

// Message is a stored chat message. Timestamp is unix milliseconds.
type Message struct {
	ID          int64
	ClientMsgID string
	SenderID    string
	ReceiverID  string
	Body        string
	Timestamp   int64
}
