package store

// Contacts returns the distinct users that user has exchanged messages
// with, ordered by first exchange. The user never appears in their own list.
func (db *DB) Contacts(user string) ([]string, error) {
	rows, err := db.Query(`
		SELECT counterpart FROM (
			SELECT CASE WHEN sender_id = ? THEN receiver_id ELSE sender_id END AS counterpart,
			       MIN(timestamp) AS first_at,
			       MIN(id) AS first_id
			FROM chat_messages
			WHERE sender_id = ? OR receiver_id = ?
			GROUP BY counterpart
		)
		WHERE counterpart != ?
		ORDER BY first_at ASC, first_id ASC`, user, user, user, user)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	contacts := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}
