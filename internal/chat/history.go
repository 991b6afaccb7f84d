package chat

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
)

// HistoryStore fetches conversation histories and keeps the last known
// history of each conversation as a fallback for failed fetches.
type HistoryStore struct {
	mu     sync.Mutex
	cache  map[ConversationKey][]Message
	source HistorySource
	logger *zap.Logger
}

// NewHistoryStore creates a store backed by source.
func NewHistoryStore(source HistorySource, logger *zap.Logger) *HistoryStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryStore{
		cache:  make(map[ConversationKey][]Message),
		source: source,
		logger: logger,
	}
}

// Fetch retrieves the history between current and contact. On failure it
// returns the cached history (empty if none) along with an error wrapping
// ErrFetchFailed.
//
// A successful fetch does not update the cache. The response may belong to
// a superseded selection, so the caller remembers it once it commits.
func (s *HistoryStore) Fetch(ctx context.Context, current User, contact Contact) ([]Message, error) {
	key := NewConversationKey(current.Username, contact.Username)
	msgs, err := s.source.History(ctx, current.Username, contact.Username)
	if err != nil {
		s.logger.Warn("history fetch failed",
			zap.String("conversation", key.String()),
			zap.Error(err))
		return s.Cached(key), fmt.Errorf("%w: history with %q: %w", ErrFetchFailed, contact.Username, err)
	}
	if msgs == nil {
		return []Message{}, nil
	}
	return slices.Clone(msgs), nil
}

// Append returns a copy of history with m appended. history is not modified.
func (s *HistoryStore) Append(history []Message, m Message) []Message {
	out := make([]Message, len(history), len(history)+1)
	copy(out, history)
	return append(out, m)
}

// Remember replaces the cached history of key.
func (s *HistoryStore) Remember(key ConversationKey, history []Message) {
	s.mu.Lock()
	s.cache[key] = slices.Clone(history)
	s.mu.Unlock()
}

// Cached returns a copy of the cached history of key, or an empty slice.
func (s *HistoryStore) Cached(key ConversationKey) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	cached, ok := s.cache[key]
	if !ok {
		return []Message{}
	}
	return slices.Clone(cached)
}

// Reset drops every cached history.
func (s *HistoryStore) Reset() {
	s.mu.Lock()
	clear(s.cache)
	s.mu.Unlock()
}

// Reconcile appends the messages of sent that are missing from fetched.
// It is used when messages were accepted by the server while a fetch for
// the same conversation was in flight, so they appear exactly once.
func Reconcile(fetched, sent []Message) []Message {
	out := slices.Clone(fetched)
	if out == nil {
		out = []Message{}
	}
	for _, m := range sent {
		if !slices.ContainsFunc(out, func(x Message) bool { return SameMessage(x, m) }) {
			out = append(out, m)
		}
	}
	return out
}

// SameMessage reports whether a and b are the same logical message. The
// client id decides when both carry one; otherwise sender, receiver, body
// and timestamp (millisecond precision) must match.
func SameMessage(a, b Message) bool {
	if a.ClientMsgID != "" && b.ClientMsgID != "" {
		return a.ClientMsgID == b.ClientMsgID
	}
	return a.Sender == b.Sender &&
		a.Receiver == b.Receiver &&
		a.Body == b.Body &&
		a.Timestamp.Truncate(time.Millisecond).Equal(b.Timestamp.Truncate(time.Millisecond))
}
