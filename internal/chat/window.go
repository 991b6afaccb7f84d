package chat

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/matheus3301/bookchat/internal/bus"
	"go.uber.org/zap"
)

// WindowState is the lifecycle state of the chat window.
type WindowState int

const (
	// Idle means no conversation is open.
	Idle WindowState = iota
	// Loading means a conversation is selected and its history fetch is in flight.
	Loading
	// Active means the history has been loaded (or its fetch failed) and
	// messages can be sent.
	Active
)

func (s WindowState) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case Loading:
		return "LOADING"
	case Active:
		return "ACTIVE"
	default:
		return fmt.Sprintf("WindowState(%d)", int(s))
	}
}

// WindowView is a consistent snapshot of the chat window.
type WindowView struct {
	State    WindowState
	Contact  Contact
	History  []Message
	Draft    string
	FetchErr error
}

// Window owns the single active conversation.
//
// Every Select and Close advances a selection sequence. A history fetch
// only commits if the sequence it was issued under is still current, so a
// slow response for a previous selection can never replace the history of
// the conversation on screen.
type Window struct {
	mu       sync.Mutex
	seq      uint64
	state    WindowState
	owner    User
	contact  Contact
	history  []Message
	inflight []Message // accepted by the server while the fetch was loading
	draft    string
	fetchErr error

	store  *HistoryStore
	sender MessageSender
	bus    *bus.Bus
	logger *zap.Logger

	ctx   context.Context
	wg    sync.WaitGroup
	now   func() time.Time
	newID func() string
}

// NewWindow creates an idle window. Background fetches run under ctx.
func NewWindow(ctx context.Context, store *HistoryStore, sender MessageSender, b *bus.Bus, logger *zap.Logger) *Window {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Window{
		store:  store,
		sender: sender,
		bus:    b,
		logger: logger,
		ctx:    ctx,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Select makes contact the active conversation for owner and starts
// exactly one history fetch. The previous conversation's history is dropped.
func (w *Window) Select(owner User, contact Contact) {
	w.mu.Lock()
	w.seq++
	seq := w.seq
	if w.contact != contact {
		w.draft = ""
	}
	w.state = Loading
	w.owner = owner
	w.contact = contact
	w.history = nil
	w.inflight = nil
	w.fetchErr = nil
	w.mu.Unlock()

	w.logger.Debug("conversation selected", zap.String("contact", contact.Username), zap.Uint64("seq", seq))
	w.bus.Emit(EventConversationLoading, contact)

	w.wg.Add(1)
	go w.load(seq, owner, contact)
}

func (w *Window) load(seq uint64, owner User, contact Contact) {
	defer w.wg.Done()

	msgs, err := w.store.Fetch(w.ctx, owner, contact)

	w.mu.Lock()
	if seq != w.seq {
		w.mu.Unlock()
		w.logger.Debug("discarding stale history",
			zap.String("contact", contact.Username),
			zap.Uint64("seq", seq))
		w.bus.Emit(EventHistoryDiscarded, HistoryResult{Contact: contact, Count: len(msgs), Err: err})
		return
	}
	w.history = Reconcile(msgs, w.inflight)
	w.inflight = nil
	w.state = Active
	w.fetchErr = err
	count := len(w.history)
	if err == nil {
		w.store.Remember(NewConversationKey(owner.Username, contact.Username), w.history)
	}
	w.mu.Unlock()

	w.bus.Emit(EventHistoryLoaded, HistoryResult{Contact: contact, Count: count, Err: err})
}

// Send submits body to the active contact. Blank bodies are ignored. The
// message is appended to the local history only after the marketplace
// accepted it; on failure the history is unchanged, the draft keeps body
// and the error wraps ErrSendFailed.
func (w *Window) Send(ctx context.Context, body string) (Message, error) {
	if strings.TrimSpace(body) == "" {
		return Message{}, nil
	}

	w.mu.Lock()
	if w.state == Idle {
		w.mu.Unlock()
		return Message{}, ErrNoActiveConversation
	}
	seq := w.seq
	msg := Message{
		ClientMsgID: w.newID(),
		Sender:      w.owner.Username,
		Receiver:    w.contact.Username,
		Body:        body,
		Timestamp:   w.now().UTC(),
	}
	w.draft = body
	w.mu.Unlock()

	if err := w.sender.SendMessage(ctx, msg); err != nil {
		w.logger.Warn("send failed",
			zap.String("contact", msg.Receiver),
			zap.String("client_msg_id", msg.ClientMsgID),
			zap.Error(err))
		w.bus.Emit(EventMessageSendFailed, MessageResult{Message: msg, Err: err})
		return Message{}, fmt.Errorf("%w: to %q: %w", ErrSendFailed, msg.Receiver, err)
	}

	w.mu.Lock()
	switch {
	case seq == w.seq:
		w.history = w.store.Append(w.history, msg)
	case w.shows(msg.Key()):
		// Reselected while the send was in flight. The refetch may have
		// been answered before the message was stored.
		w.history = Reconcile(w.history, []Message{msg})
	default:
		w.mu.Unlock()
		w.logger.Info("message accepted after its conversation was closed",
			zap.String("contact", msg.Receiver),
			zap.String("client_msg_id", msg.ClientMsgID))
		w.bus.Emit(EventMessageSent, MessageResult{Message: msg})
		return msg, nil
	}
	if w.state == Loading {
		w.inflight = append(w.inflight, msg)
	} else {
		w.store.Remember(msg.Key(), w.history)
	}
	if w.draft == body {
		w.draft = ""
	}
	w.mu.Unlock()

	w.logger.Debug("message sent", zap.String("contact", msg.Receiver), zap.String("client_msg_id", msg.ClientMsgID))
	w.bus.Emit(EventMessageSent, MessageResult{Message: msg})
	return msg, nil
}

// shows reports whether the open conversation is key. Callers hold w.mu.
func (w *Window) shows(key ConversationKey) bool {
	return w.state != Idle && NewConversationKey(w.owner.Username, w.contact.Username) == key
}

// Close returns the window to Idle and discards the conversation.
func (w *Window) Close() {
	w.mu.Lock()
	w.seq++
	was := w.state
	contact := w.contact
	w.state = Idle
	w.owner = User{}
	w.contact = Contact{}
	w.history = nil
	w.inflight = nil
	w.draft = ""
	w.fetchErr = nil
	w.mu.Unlock()

	if was != Idle {
		w.bus.Emit(EventConversationClosed, contact)
	}
}

// SetDraft stores unsent compose text for the active conversation.
func (w *Window) SetDraft(text string) {
	w.mu.Lock()
	if w.state != Idle {
		w.draft = text
	}
	w.mu.Unlock()
}

// Draft returns the unsent compose text.
func (w *Window) Draft() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draft
}

// ActiveContact returns the open conversation's contact, if any.
func (w *Window) ActiveContact() (Contact, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.contact, w.state != Idle
}

// Snapshot returns a copy of the window state.
func (w *Window) Snapshot() WindowView {
	w.mu.Lock()
	defer w.mu.Unlock()
	return WindowView{
		State:    w.state,
		Contact:  w.contact,
		History:  slices.Clone(w.history),
		Draft:    w.draft,
		FetchErr: w.fetchErr,
	}
}

// Wait blocks until every history fetch started so far has finished.
func (w *Window) Wait() {
	w.wg.Wait()
}
