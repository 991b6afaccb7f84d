package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/matheus3301/bookchat/internal/bus"
	"github.com/matheus3301/bookchat/internal/market"
	"github.com/matheus3301/bookchat/internal/store"
)

// EventMessageStored is published after a new message is persisted.
const EventMessageStored = "market.message_stored"

// maxBody bounds the size of a send request.
const maxBody = 64 << 10

// ChatHandler implements the marketplace chat endpoints backed by the store.
type ChatHandler struct {
	db     *store.DB
	bus    *bus.Bus
	logger *zap.Logger
}

// NewChatHandler creates a chat handler.
func NewChatHandler(db *store.DB, b *bus.Bus, logger *zap.Logger) *ChatHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatHandler{db: db, bus: b, logger: logger}
}

// History serves GET /api/chat/get?senderId=&receiverId=.
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sender, receiver := q.Get("senderId"), q.Get("receiverId")
	if sender == "" || receiver == "" {
		http.Error(w, "senderId and receiverId are required", http.StatusBadRequest)
		return
	}

	msgs, err := h.db.History(sender, receiver)
	if err != nil {
		h.logger.Error("history query failed", zap.String("sender", sender), zap.String("receiver", receiver), zap.Error(err))
		http.Error(w, "failed to get chat history", http.StatusInternalServerError)
		return
	}

	out := make([]market.ChatMessage, 0, len(msgs))
	for i := range msgs {
		out = append(out, toWire(&msgs[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// Contacts serves GET /api/chat/list?userId=.
func (h *ChatHandler) Contacts(w http.ResponseWriter, r *http.Request) {
	user := r.URL.Query().Get("userId")
	if user == "" {
		http.Error(w, "userId is required", http.StatusBadRequest)
		return
	}

	names, err := h.db.Contacts(user)
	if err != nil {
		h.logger.Error("contacts query failed", zap.String("user", user), zap.Error(err))
		http.Error(w, "failed to fetch contacts", http.StatusInternalServerError)
		return
	}

	out := make([]market.ContactDTO, 0, len(names))
	for _, n := range names {
		out = append(out, market.ContactDTO{Username: n})
	}
	writeJSON(w, http.StatusOK, out)
}

// Send serves POST /api/chat/send.
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	var in market.ChatMessage
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	if err := dec.Decode(&in); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	m := store.Message{
		ClientMsgID: in.ClientMsgID,
		SenderID:    in.SenderID,
		ReceiverID:  in.ReceiverID,
		Body:        in.Message,
	}
	if !in.Timestamp.IsZero() {
		m.Timestamp = in.Timestamp.UnixMilli()
	}

	stored, inserted, err := h.db.InsertMessage(&m)
	if errors.Is(err, store.ErrEmptyMessage) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		h.logger.Error("store message failed", zap.String("client_msg_id", in.ClientMsgID), zap.Error(err))
		http.Error(w, "failed to send message", http.StatusInternalServerError)
		return
	}

	if inserted {
		h.bus.Emit(EventMessageStored, stored)
		h.logger.Info("message stored",
			zap.Int64("id", stored.ID),
			zap.String("sender", stored.SenderID),
			zap.String("receiver", stored.ReceiverID))
	} else {
		h.logger.Debug("duplicate send ignored", zap.String("client_msg_id", stored.ClientMsgID))
	}
	writeJSON(w, http.StatusOK, toWire(&stored))
}

func toWire(m *store.Message) market.ChatMessage {
	return market.ChatMessage{
		ID:          m.ID,
		ClientMsgID: m.ClientMsgID,
		SenderID:    m.SenderID,
		ReceiverID:  m.ReceiverID,
		Message:     m.Body,
		Timestamp:   time.UnixMilli(m.Timestamp).UTC(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
