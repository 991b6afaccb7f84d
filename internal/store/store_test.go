package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func insert(t *testing.T, db *DB, m Message) Message {
	t.Helper()
	stored, _, err := db.InsertMessage(&m)
	if err != nil {
		t.Fatalf("InsertMessage(%+v): %v", m, err)
	}
	return stored
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := testDB(t)

	result, err := db.Migrate()
	if err != nil {
		t.Fatal(err)
	}
	if result.Changed {
		t.Error("second Migrate() should report Changed=false")
	}
	if result.Version != 1 {
		t.Errorf("version = %d, want 1", result.Version)
	}
	if result.Dirty {
		t.Error("dirty after migrate")
	}
}

func TestInsertMessageAssignsID(t *testing.T) {
	db := testDB(t)

	m := insert(t, db, Message{ClientMsgID: "c1", SenderID: "alice", ReceiverID: "bob", Body: "hi", Timestamp: 1000})
	if m.ID == 0 {
		t.Fatal("expected non-zero id")
	}
	count, err := db.MessageCount()
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}
}

func TestInsertMessageIdempotentOnClientID(t *testing.T) {
	db := testDB(t)

	first, inserted, err := db.InsertMessage(&Message{ClientMsgID: "c1", SenderID: "alice", ReceiverID: "bob", Body: "hi", Timestamp: 1000})
	if err != nil || !inserted {
		t.Fatalf("first insert: inserted=%v err=%v", inserted, err)
	}
	again, inserted, err := db.InsertMessage(&Message{ClientMsgID: "c1", SenderID: "alice", ReceiverID: "bob", Body: "hi", Timestamp: 2000})
	if err != nil {
		t.Fatal(err)
	}
	if inserted {
		t.Fatal("duplicate client id should not insert")
	}
	if diff := cmp.Diff(first, again); diff != "" {
		t.Fatalf("duplicate returned a different row (-first +again):\n%s", diff)
	}
	if count, _ := db.MessageCount(); count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}
}

func TestInsertMessageWithoutClientID(t *testing.T) {
	db := testDB(t)

	insert(t, db, Message{SenderID: "alice", ReceiverID: "bob", Body: "hi", Timestamp: 1000})
	insert(t, db, Message{SenderID: "alice", ReceiverID: "bob", Body: "hi", Timestamp: 1000})
	if count, _ := db.MessageCount(); count != 2 {
		t.Fatalf("count = %d, want 2 (no client id means no dedup)", count)
	}
}

func TestInsertMessageDefaultsTimestamp(t *testing.T) {
	db := testDB(t)

	m := insert(t, db, Message{SenderID: "alice", ReceiverID: "bob", Body: "hi"})
	if m.Timestamp == 0 {
		t.Fatal("timestamp should default to now")
	}
}

func TestInsertMessageRejectsEmpty(t *testing.T) {
	db := testDB(t)

	tests := []struct {
		name string
		msg  Message
	}{
		{"no sender", Message{ReceiverID: "bob", Body: "hi"}},
		{"no receiver", Message{SenderID: "alice", Body: "hi"}},
		{"no body", Message{SenderID: "alice", ReceiverID: "bob"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := db.InsertMessage(&tt.msg)
			if !errors.Is(err, ErrEmptyMessage) {
				t.Fatalf("err = %v, want ErrEmptyMessage", err)
			}
		})
	}
}

func TestHistoryBothDirectionsOrdered(t *testing.T) {
	db := testDB(t)

	insert(t, db, Message{ClientMsgID: "c3", SenderID: "alice", ReceiverID: "bob", Body: "third", Timestamp: 3000})
	insert(t, db, Message{ClientMsgID: "c1", SenderID: "alice", ReceiverID: "bob", Body: "first", Timestamp: 1000})
	insert(t, db, Message{ClientMsgID: "c2", SenderID: "bob", ReceiverID: "alice", Body: "second", Timestamp: 2000})
	insert(t, db, Message{ClientMsgID: "x", SenderID: "alice", ReceiverID: "carol", Body: "other", Timestamp: 1500})

	msgs, err := db.History("alice", "bob")
	if err != nil {
		t.Fatal(err)
	}
	var bodies []string
	for _, m := range msgs {
		bodies = append(bodies, m.Body)
	}
	if diff := cmp.Diff([]string{"first", "second", "third"}, bodies); diff != "" {
		t.Fatalf("history (-want +got):\n%s", diff)
	}

	reversed, err := db.History("bob", "alice")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(msgs, reversed); diff != "" {
		t.Fatalf("history should not depend on argument order (-ab +ba):\n%s", diff)
	}
}

func TestHistoryEmpty(t *testing.T) {
	db := testDB(t)

	msgs, err := db.History("alice", "bob")
	if err != nil {
		t.Fatal(err)
	}
	if msgs == nil || len(msgs) != 0 {
		t.Fatalf("history = %#v, want empty non-nil slice", msgs)
	}
}

func TestContactsDistinctCounterparts(t *testing.T) {
	db := testDB(t)

	insert(t, db, Message{SenderID: "carol", ReceiverID: "alice", Body: "hey", Timestamp: 2000})
	insert(t, db, Message{SenderID: "alice", ReceiverID: "bob", Body: "hi", Timestamp: 1000})
	insert(t, db, Message{SenderID: "bob", ReceiverID: "alice", Body: "hello", Timestamp: 3000})
	insert(t, db, Message{SenderID: "alice", ReceiverID: "alice", Body: "note to self", Timestamp: 500})
	insert(t, db, Message{SenderID: "bob", ReceiverID: "dave", Body: "unrelated", Timestamp: 100})

	got, err := db.Contacts("alice")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"bob", "carol"}, got); diff != "" {
		t.Fatalf("contacts (-want +got):\n%s", diff)
	}
}

func TestContactsNone(t *testing.T) {
	db := testDB(t)

	got, err := db.Contacts("nobody")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("contacts = %#v, want empty non-nil slice", got)
	}
}
