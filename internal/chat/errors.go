package chat

import "errors"

var (
	// ErrFetchFailed marks a failed contact refresh or history fetch. The
	// previous local state is kept when it is returned.
	ErrFetchFailed = errors.New("chat: fetch failed")

	// ErrSendFailed marks a message the marketplace did not accept. The
	// message is not appended to the local history.
	ErrSendFailed = errors.New("chat: send failed")

	// ErrNoActiveConversation is returned when sending with no open conversation.
	ErrNoActiveConversation = errors.New("chat: no active conversation")
)
