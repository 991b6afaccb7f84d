package chat

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/matheus3301/bookchat/internal/bus"
)

var errUnavailable = errors.New("marketplace unavailable")

// fakeAPI is an in-memory marketplace. Histories and contacts can be gated
// so a test decides when a request resolves.
type fakeAPI struct {
	mu            sync.Mutex
	contacts      map[string][]Contact
	contactsErr   error
	contactsGate  chan struct{}
	contactsCalls int
	histories     map[ConversationKey][]Message
	historyErr    error
	historyGates  map[string]chan struct{}
	historyQueue  map[string][]chan struct{}
	historyCalls  []string
	sendErr       error
	sendGate      chan struct{}
	sendStarted   chan struct{}
	sent          []Message
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		contacts:     make(map[string][]Contact),
		histories:    make(map[ConversationKey][]Message),
		historyGates: make(map[string]chan struct{}),
		historyQueue: make(map[string][]chan struct{}),
	}
}

func (f *fakeAPI) Contacts(ctx context.Context, username string) ([]Contact, error) {
	f.mu.Lock()
	f.contactsCalls++
	gate := f.contactsGate
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.contactsErr != nil {
		return nil, f.contactsErr
	}
	return slices.Clone(f.contacts[username]), nil
}

func (f *fakeAPI) History(ctx context.Context, sender, receiver string) ([]Message, error) {
	f.mu.Lock()
	f.historyCalls = append(f.historyCalls, receiver)
	if queue := f.historyQueue[receiver]; len(queue) > 0 {
		// A queued request answers with the history as it was when the
		// request arrived, however late it is released.
		gate := queue[0]
		f.historyQueue[receiver] = queue[1:]
		snapshot := slices.Clone(f.histories[NewConversationKey(sender, receiver)])
		f.mu.Unlock()
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return snapshot, nil
	}
	gate := f.historyGates[receiver]
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return slices.Clone(f.histories[NewConversationKey(sender, receiver)]), nil
}

func (f *fakeAPI) SendMessage(ctx context.Context, m Message) error {
	f.mu.Lock()
	gate, started := f.sendGate, f.sendStarted
	f.sendGate, f.sendStarted = nil, nil
	f.mu.Unlock()
	if gate != nil {
		close(started)
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, m)
	key := m.Key()
	f.histories[key] = append(f.histories[key], m)
	return nil
}

func (f *fakeAPI) gateHistory(receiver string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	gate := make(chan struct{})
	f.historyGates[receiver] = gate
	return gate
}

// queueHistory gates the next history request for receiver only.
func (f *fakeAPI) queueHistory(receiver string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	gate := make(chan struct{})
	f.historyQueue[receiver] = append(f.historyQueue[receiver], gate)
	return gate
}

// gateSend holds the next send until release is closed. started is closed
// once the send reaches the marketplace.
func (f *fakeAPI) gateSend() (started <-chan struct{}, release chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sendGate = make(chan struct{})
	f.sendStarted = make(chan struct{})
	return f.sendStarted, f.sendGate
}

func (f *fakeAPI) setHistoryErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.historyErr = err
}

func (f *fakeAPI) setHistory(a, b string, msgs ...Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.histories[NewConversationKey(a, b)] = msgs
}

func (f *fakeAPI) setSendErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sendErr = err
}

func (f *fakeAPI) historyCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.historyCalls)
}

func (f *fakeAPI) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type staticIdentity struct {
	mu   sync.Mutex
	user User
	ok   bool
}

func signedIn(username string) *staticIdentity {
	return &staticIdentity{user: User{ID: username + "-id", Username: username}, ok: true}
}

func (s *staticIdentity) CurrentUser() (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user, s.ok
}

func (s *staticIdentity) signOut() {
	s.mu.Lock()
	s.ok = false
	s.mu.Unlock()
}

// waitFor reads events until one of the given kind arrives.
func waitFor(t *testing.T, ch <-chan bus.Event, kind string) bus.Event {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case evt := <-ch:
			if evt.Kind == kind {
				return evt
			}
		case <-timeout:
			t.Fatalf("timeout waiting for %s", kind)
			return bus.Event{}
		}
	}
}

func msg(id, from, to, body string, ts int64) Message {
	return Message{ClientMsgID: id, Sender: from, Receiver: to, Body: body, Timestamp: time.UnixMilli(ts).UTC()}
}

func runtimeYield() {
	time.Sleep(time.Millisecond)
}
