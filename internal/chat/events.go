package chat

// Event kinds published on the bus. Subscribe to "chat." to observe all of them.
const (
	EventVisibilityChanged     = "chat.visibility_changed"
	EventContactsChanged       = "chat.contacts_changed"
	EventContactsRefreshFailed = "chat.contacts_refresh_failed"
	EventConversationLoading   = "chat.conversation_loading"
	EventHistoryLoaded         = "chat.history_loaded"
	EventHistoryDiscarded      = "chat.history_discarded"
	EventConversationClosed    = "chat.conversation_closed"
	EventMessageSent           = "chat.message_sent"
	EventMessageSendFailed     = "chat.message_send_failed"
	EventSessionReset          = "chat.session_reset"
)

// VisibilityChange is the payload of EventVisibilityChanged.
type VisibilityChange struct {
	From Visibility
	To   Visibility
}

// HistoryResult is the payload of EventHistoryLoaded and EventHistoryDiscarded.
// Err is set when the fetch failed and the history shown is stale or empty.
type HistoryResult struct {
	Contact Contact
	Count   int
	Err     error
}

// MessageResult is the payload of EventMessageSent and EventMessageSendFailed.
type MessageResult struct {
	Message Message
	Err     error
}
