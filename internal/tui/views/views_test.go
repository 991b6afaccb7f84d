package views

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/matheus3301/bookchat/internal/chat"
	"github.com/matheus3301/bookchat/internal/tui/ui"
)

var now = time.Date(2024, 11, 5, 18, 0, 0, 0, time.UTC)

func TestSanitizeForTerminal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Is the book available?", "Is the book available?"},
		{"skin tone", "ok \U0001F44D\U0001F3FB", "ok \U0001F44D"},
		{"zwj sequence", "\U0001F468\u200d\U0001F469", "\U0001F468\U0001F469"},
		{"variation selector", "\u2764\ufe0f thanks", "\u2764 thanks"},
		{"cjk untouched", "二手書", "二手書"},
		{"invalid utf8", "ok\xff", "ok"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeForTerminal(tt.in); got != tt.want {
				t.Errorf("sanitizeForTerminal(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		name string
		ts   time.Time
		want string
	}{
		{"zero", time.Time{}, ""},
		{"today", time.Date(2024, 11, 5, 9, 30, 0, 0, time.UTC), "09:30"},
		{"this year", time.Date(2024, 3, 1, 8, 5, 0, 0, time.UTC), "Mar 01 08:05"},
		{"last year", time.Date(2023, 12, 31, 23, 0, 0, 0, time.UTC), "2023-12-31"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatTimestamp(tt.ts, now); got != tt.want {
				t.Errorf("formatTimestamp() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderHistory(t *testing.T) {
	theme := ui.DefaultTheme()
	w := chat.WindowView{
		State:   chat.Active,
		Contact: chat.Contact{Username: "bob"},
		History: []chat.Message{
			{Sender: "alice", Receiver: "bob", Body: "Is [the] book available?", Timestamp: now.Add(-time.Hour)},
			{Sender: "bob", Receiver: "alice", Body: "Yes", Timestamp: now},
		},
	}

	got := renderHistory(w, "alice", theme, now)
	if !strings.Contains(got, "You") || !strings.Contains(got, "bob") {
		t.Errorf("senders missing:\n%s", got)
	}
	if strings.Index(got, "available") > strings.Index(got, "Yes") {
		t.Errorf("history out of order:\n%s", got)
	}
	if !strings.Contains(got, "[the[]") {
		t.Errorf("body should be tag-escaped:\n%s", got)
	}
}

func TestRenderHistoryPlaceholders(t *testing.T) {
	theme := ui.DefaultTheme()
	tests := []struct {
		name string
		w    chat.WindowView
		want string
	}{
		{"loading", chat.WindowView{State: chat.Loading}, "loading history"},
		{"empty", chat.WindowView{State: chat.Active}, "no messages yet"},
		{"failed", chat.WindowView{State: chat.Active, FetchErr: errors.New("boom")}, "could not load history"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := renderHistory(tt.w, "alice", theme, now); !strings.Contains(got, tt.want) {
				t.Errorf("renderHistory() = %q, want it to mention %q", got, tt.want)
			}
		})
	}
}

func TestConversationTitle(t *testing.T) {
	bob := chat.Contact{Username: "bob"}
	tests := []struct {
		w    chat.WindowView
		want string
	}{
		{chat.WindowView{}, "Chat"},
		{chat.WindowView{State: chat.Loading, Contact: bob}, "bob (loading...)"},
		{chat.WindowView{State: chat.Active, Contact: bob}, "bob"},
		{chat.WindowView{State: chat.Active, Contact: bob, FetchErr: chat.ErrFetchFailed}, "bob (offline copy)"},
	}
	for _, tt := range tests {
		if got := conversationTitle(tt.w); got != tt.want {
			t.Errorf("conversationTitle(%v) = %q, want %q", tt.w.State, got, tt.want)
		}
	}
}

func TestDescribeState(t *testing.T) {
	tests := []struct {
		v    chat.SessionView
		want string
	}{
		{chat.SessionView{}, "chat unavailable"},
		{chat.SessionView{Available: true}, "chat collapsed"},
		{chat.SessionView{Available: true, Visibility: chat.ContactsOpen, Contacts: []chat.Contact{{Username: "bob"}}}, "contacts (1)"},
		{chat.SessionView{Available: true, Visibility: chat.ConversationOpen, Window: chat.WindowView{Contact: chat.Contact{Username: "bob"}}}, "chatting with bob"},
	}
	for _, tt := range tests {
		if got := describeState(tt.v); got != tt.want {
			t.Errorf("describeState() = %q, want %q", got, tt.want)
		}
	}
}

func TestContactListKeepsSelection(t *testing.T) {
	cl := NewContactList(ui.DefaultTheme())
	cl.Update([]chat.Contact{{Username: "bob"}, {Username: "carol"}}, "")
	cl.Select(2, 0)
	if got := cl.SelectedContact().Username; got != "carol" {
		t.Fatalf("SelectedContact() = %q, want carol", got)
	}

	cl.Update([]chat.Contact{{Username: "dave"}, {Username: "bob"}, {Username: "carol"}}, "bob")
	if got := cl.SelectedContact().Username; got != "carol" {
		t.Fatalf("after update SelectedContact() = %q, want carol", got)
	}

	cl.Update(nil, "")
	if got := cl.SelectedContact(); got != (chat.Contact{}) {
		t.Fatalf("empty list SelectedContact() = %+v", got)
	}
}

func TestComposerDraft(t *testing.T) {
	c := NewComposer(ui.DefaultTheme())
	var edits []string
	c.SetOnChange(func(text string) { edits = append(edits, text) })

	c.SetDraft("restored draft")
	if c.GetText() != "restored draft" {
		t.Fatalf("text = %q", c.GetText())
	}
	if len(edits) != 0 {
		t.Fatalf("SetDraft reported edits: %v", edits)
	}

	c.SetText("typed")
	if len(edits) != 1 || edits[0] != "typed" {
		t.Fatalf("edits = %v", edits)
	}
}

func TestConversationKeepsTypingAcrossRedraws(t *testing.T) {
	cv := NewConversation(ui.DefaultTheme())
	cv.now = func() time.Time { return now }
	bob := chat.Contact{Username: "bob"}

	cv.Update(chat.WindowView{State: chat.Loading, Contact: bob, Draft: "hello"}, "alice")
	if got := cv.Composer().GetText(); got != "hello" {
		t.Fatalf("composer = %q, want restored draft", got)
	}

	cv.Composer().SetText("hello there")
	cv.Update(chat.WindowView{State: chat.Active, Contact: bob, Draft: "hello"}, "alice")
	if got := cv.Composer().GetText(); got != "hello there" {
		t.Fatalf("redraw overwrote typing: %q", got)
	}

	cv.ClearComposer("something else")
	if cv.Composer().GetText() != "hello there" {
		t.Fatal("ClearComposer cleared unrelated text")
	}
	cv.ClearComposer("hello there")
	if cv.Composer().GetText() != "" {
		t.Fatal("ClearComposer did not clear sent text")
	}
}
