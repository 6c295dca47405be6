package storage

import "fmt"

// migrate upgrades a database created before the is_read, display_order and
// content_hash columns existed. It runs once at Open, inspects the live
// column set and adds whatever is missing, so re-running it against a
// current schema is a no-op.
func (db *DB) migrate() error {
	columns, err := db.cardColumns()
	if err != nil {
		return err
	}

	if !columns["is_read"] {
		if _, err := db.conn.Exec(`ALTER TABLE cards ADD COLUMN is_read BOOLEAN DEFAULT FALSE`); err != nil {
			return fmt.Errorf("failed to add is_read column: %w", err)
		}
	}

	if !columns["display_order"] {
		tx, err := db.conn.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin migration transaction: %w", err)
		}
		defer tx.Rollback()

		if _, err := tx.Exec(`ALTER TABLE cards ADD COLUMN display_order INTEGER`); err != nil {
			return fmt.Errorf("failed to add display_order column: %w", err)
		}

		// Backfill from ascending id, which is the insertion order of
		// records that predate explicit ordering.
		rows, err := tx.Query(`SELECT id FROM cards ORDER BY id`)
		if err != nil {
			return fmt.Errorf("failed to list cards for display_order backfill: %w", err)
		}
		var ids []int64
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan card id during backfill: %w", err)
			}
			ids = append(ids, id)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return fmt.Errorf("failed to iterate cards during backfill: %w", err)
		}
		rows.Close()

		for order, id := range ids {
			if _, err := tx.Exec(`UPDATE cards SET display_order = ? WHERE id = ?`, order+1, id); err != nil {
				return fmt.Errorf("failed to backfill display_order for card %d: %w", id, err)
			}
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit display_order backfill: %w", err)
		}
	}

	if !columns["content_hash"] {
		if _, err := db.conn.Exec(`ALTER TABLE cards ADD COLUMN content_hash TEXT`); err != nil {
			return fmt.Errorf("failed to add content_hash column: %w", err)
		}
	}

	return nil
}

// cardColumns returns the set of column names currently on the cards table.
func (db *DB) cardColumns() (map[string]bool, error) {
	rows, err := db.conn.Query(`PRAGMA table_info(cards)`)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect cards table: %w", err)
	}
	defer rows.Close()

	columns := make(map[string]bool)
	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notNull int
			dflt    any
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan cards table info: %w", err)
		}
		columns[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cards table info: %w", err)
	}
	return columns, nil
}
