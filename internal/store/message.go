package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrEmptyMessage is returned when a message lacks sender, receiver or body.
var ErrEmptyMessage = errors.New("message requires sender, receiver and body")

// InsertMessage stores m and returns the stored row. It is idempotent on
// ClientMsgID: re-sending the same client id returns the original row and
// reports inserted=false.
func (db *DB) InsertMessage(m *Message) (stored Message, inserted bool, err error) {
	if m.SenderID == "" || m.ReceiverID == "" || m.Body == "" {
		return Message{}, false, ErrEmptyMessage
	}
	if m.ClientMsgID != "" {
		existing, err := db.MessageByClientID(m.ClientMsgID)
		if err != nil {
			return Message{}, false, err
		}
		if existing != nil {
			return *existing, false, nil
		}
	}

	ts := m.Timestamp
	if ts == 0 {
		ts = time.Now().UnixMilli()
	}
	res, err := db.Exec(`
		INSERT INTO chat_messages (client_msg_id, sender_id, receiver_id, message, timestamp, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING`,
		nullString(m.ClientMsgID), m.SenderID, m.ReceiverID, m.Body, ts, time.Now().UnixMilli())
	if err != nil {
		return Message{}, false, fmt.Errorf("insert message: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Message{}, false, err
	}
	if n == 0 {
		// Lost a race with a concurrent insert of the same client id.
		existing, err := db.MessageByClientID(m.ClientMsgID)
		if err != nil {
			return Message{}, false, err
		}
		if existing == nil {
			return Message{}, false, fmt.Errorf("insert message: conflict on %q without stored row", m.ClientMsgID)
		}
		return *existing, false, nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Message{}, false, err
	}
	out := *m
	out.ID = id
	out.Timestamp = ts
	return out, true, nil
}

// MessageByClientID returns the message with the given client id, or nil.
func (db *DB) MessageByClientID(clientMsgID string) (*Message, error) {
	var m Message
	var cid sql.NullString
	err := db.QueryRow(`
		SELECT id, client_msg_id, sender_id, receiver_id, message, timestamp
		FROM chat_messages WHERE client_msg_id = ?`, clientMsgID).
		Scan(&m.ID, &cid, &m.SenderID, &m.ReceiverID, &m.Body, &m.Timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	m.ClientMsgID = cid.String
	return &m, nil
}

// History returns every message exchanged between a and b in either
// direction, ordered by timestamp ascending.
func (db *DB) History(a, b string) ([]Message, error) {
	rows, err := db.Query(`
		SELECT id, client_msg_id, sender_id, receiver_id, message, timestamp
		FROM chat_messages
		WHERE (sender_id = ? AND receiver_id = ?)
		   OR (sender_id = ? AND receiver_id = ?)
		ORDER BY timestamp ASC, id ASC`, a, b, b, a)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	msgs := []Message{}
	for rows.Next() {
		var m Message
		var cid sql.NullString
		if err := rows.Scan(&m.ID, &cid, &m.SenderID, &m.ReceiverID, &m.Body, &m.Timestamp); err != nil {
			return nil, err
		}
		m.ClientMsgID = cid.String
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// MessageCount returns the total number of messages.
func (db *DB) MessageCount() (int64, error) {
	var count int64
	err := db.QueryRow(`SELECT COUNT(*) FROM chat_messages`).Scan(&count)
	return count, err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
