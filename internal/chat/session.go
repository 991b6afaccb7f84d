package chat

import (
	"context"
	"sync"

	"github.com/matheus3301/bookchat/internal/bus"
	"go.uber.org/zap"
)

// SessionView is a snapshot of the whole chat widget.
type SessionView struct {
	Available  bool
	Visibility Visibility
	Contacts   []Contact
	Window     WindowView
}

// Session is the chat controller owned by the host application. It owns
// widget visibility, the contact registry and the single chat window, and
// exposes the entry points used by the rest of the application.
//
// Public methods are serialized, so visibility and the active conversation
// always change together.
type Session struct {
	mu         sync.Mutex
	visibility Visibility
	closed     bool

	identity Identity
	registry *Registry
	store    *HistoryStore
	window   *Window
	bus      *bus.Bus
	logger   *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSession creates a collapsed chat session talking to api.
func NewSession(api API, identity Identity, b *bus.Bus, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	store := NewHistoryStore(api, logger.Named("history"))
	registry := NewRegistry(api, b, logger.Named("contacts"))
	registry.base = ctx
	return &Session{
		visibility: Collapsed,
		identity:   identity,
		registry:   registry,
		store:      store,
		window:     NewWindow(ctx, store, api, b, logger.Named("window")),
		bus:        b,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// currentUser must be called with s.mu held.
func (s *Session) currentUser() (User, bool) {
	if s.closed || s.identity == nil {
		return User{}, false
	}
	u, ok := s.identity.CurrentUser()
	if !ok || u.Username == "" {
		return User{}, false
	}
	s.registry.SetOwner(u.Username)
	return u, true
}

// Available reports whether a user is signed in and chat can be used.
func (s *Session) Available() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.currentUser()
	return ok
}

// NotifyExternalContact opens a conversation with a seller from outside the
// widget, adding the seller to the contacts if needed. Contacting yourself
// is silently ignored, as is a request made on behalf of anyone but the
// signed-in user.
func (s *Session) NotifyExternalContact(sellerUsername string, current User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.currentUser()
	if !ok {
		return
	}
	if current.Username != user.Username {
		s.logger.Debug("ignoring contact request for another user",
			zap.String("seller", sellerUsername),
			zap.String("requested_by", current.Username))
		return
	}
	if sellerUsername == "" || sellerUsername == user.Username {
		s.logger.Debug("ignoring contact request", zap.String("seller", sellerUsername))
		return
	}
	s.registry.AddContact(sellerUsername)
	s.window.Select(user, Contact{Username: sellerUsername})
	s.transition(ConversationOpen)
}

// ToggleVisibility opens the contact list when collapsed, refreshing it in
// the background, and collapses the widget otherwise. Either way the open
// conversation is closed.
func (s *Session) ToggleVisibility() {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.currentUser()
	if !ok {
		return
	}
	s.window.Close()
	if s.visibility != Collapsed {
		s.transition(Collapsed)
		return
	}
	s.transition(ContactsOpen)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_, _ = s.registry.Refresh(s.ctx, user.Username)
	}()
}

// SelectContact makes contact the active conversation.
func (s *Session) SelectContact(contact Contact) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.currentUser()
	if !ok || contact.Username == "" || contact.Username == user.Username {
		return
	}
	s.registry.AddContact(contact.Username)
	s.window.Select(user, contact)
	s.transition(ConversationOpen)
}

// CloseConversation closes the active conversation and leaves the contact
// list open.
func (s *Session) CloseConversation() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.window.Close()
	if s.visibility == ConversationOpen {
		s.transition(ContactsOpen)
	}
}

// CloseAll collapses the widget.
func (s *Session) CloseAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.window.Close()
	s.transition(Collapsed)
}

// Reset is the sign-out hook: it forgets contacts and histories and
// collapses the widget.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.window.Close()
	s.registry.Reset()
	s.store.Reset()
	s.transition(Collapsed)
	s.logger.Info("chat session reset")
	s.bus.Emit(EventSessionReset, nil)
}

// Send submits body in the active conversation. See Window.Send.
func (s *Session) Send(ctx context.Context, body string) (Message, error) {
	if !s.Available() {
		return Message{}, ErrNoActiveConversation
	}
	return s.window.Send(ctx, body)
}

// SetDraft stores unsent compose text.
func (s *Session) SetDraft(text string) {
	s.window.SetDraft(text)
}

// RefreshContacts synchronously refreshes the contact list.
func (s *Session) RefreshContacts(ctx context.Context) ([]Contact, error) {
	s.mu.Lock()
	user, ok := s.currentUser()
	s.mu.Unlock()
	if !ok {
		return nil, nil
	}
	return s.registry.Refresh(ctx, user.Username)
}

// State returns a snapshot of the session.
func (s *Session) State() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.currentUser()
	return SessionView{
		Available:  ok,
		Visibility: s.visibility,
		Contacts:   s.registry.Contacts(),
		Window:     s.window.Snapshot(),
	}
}

// Visibility returns the current widget visibility.
func (s *Session) Visibility() Visibility {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visibility
}

// Close stops background work and waits for in-flight requests to return.
// The session is unusable afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
	s.window.Wait()
}

// transition must be called with s.mu held.
func (s *Session) transition(to Visibility) {
	from := s.visibility
	if err := checkTransition(from, to); err != nil {
		s.logger.Error("visibility transition rejected", zap.Error(err))
		return
	}
	if from == to {
		return
	}
	s.visibility = to
	s.logger.Debug("visibility changed", zap.Stringer("from", from), zap.Stringer("to", to))
	s.bus.Emit(EventVisibilityChanged, VisibilityChange{From: from, To: to})
}
