package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/conorfennell/studydeck/internal/domain"
	_ "modernc.org/sqlite" // Registers the sqlite driver
)

// DB represents a wrapper around the SQL database connection.
type DB struct {
	conn *sql.DB
}

// Open creates a new database connection, ensures the schema exists and
// runs the one-time column migration for stores created by older versions.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := &DB{conn: conn}
	if _, err := conn.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	if err := db.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Today returns the current date in the ISO form used by next_review.
func Today() string {
	return time.Now().Format("2006-01-02")
}

func validateCard(question, answer string, difficulty int) error {
	if strings.TrimSpace(question) == "" {
		return fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(answer) == "" {
		return fmt.Errorf("%w: empty answer", domain.ErrInvalidInput)
	}
	if difficulty < domain.MinDifficulty || difficulty > domain.MaxDifficulty {
		return fmt.Errorf("%w: difficulty %d outside [%d,%d]", domain.ErrInvalidInput,
			difficulty, domain.MinDifficulty, domain.MaxDifficulty)
	}
	return nil
}

// InsertCard persists a new card at the end of the display order and
// returns its id. An empty nextReview defaults to today.
func (db *DB) InsertCard(question, answer string, difficulty int, nextReview string) (int64, error) {
	return db.insertCard(question, answer, difficulty, nextReview, "")
}

// InsertImportedCard persists a generated card tagged with its content
// fingerprint so a later re-import of the same document can skip it.
func (db *DB) InsertImportedCard(question, answer, contentHash string) (int64, error) {
	return db.insertCard(question, answer, domain.MinDifficulty, Today(), contentHash)
}

func (db *DB) insertCard(question, answer string, difficulty int, nextReview, contentHash string) (int64, error) {
	if err := validateCard(question, answer, difficulty); err != nil {
		return 0, err
	}
	if nextReview == "" {
		nextReview = Today()
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin insert transaction: %w", err)
	}
	defer tx.Rollback()

	var maxOrder int
	if err := tx.QueryRow(`SELECT COALESCE(MAX(display_order), 0) FROM cards`).Scan(&maxOrder); err != nil {
		return 0, fmt.Errorf("failed to compute next display order: %w", err)
	}

	res, err := tx.Exec(`
		INSERT INTO cards (question, answer, difficulty, next_review, is_read, display_order, content_hash)
		VALUES (?, ?, ?, ?, FALSE, ?, ?)
	`,
		question,
		answer,
		difficulty,
		nextReview,
		maxOrder+1,
		sql.NullString{String: contentHash, Valid: contentHash != ""},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert card: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get inserted card id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit card insert: %w", err)
	}
	return id, nil
}

// UpdateReview overwrites the difficulty and next review date of a card.
func (db *DB) UpdateReview(id int64, difficulty int, nextReview string) error {
	if difficulty < domain.MinDifficulty || difficulty > domain.MaxDifficulty {
		return fmt.Errorf("%w: difficulty %d outside [%d,%d]", domain.ErrInvalidInput,
			difficulty, domain.MinDifficulty, domain.MaxDifficulty)
	}
	res, err := db.conn.Exec(`
		UPDATE cards SET difficulty = ?, next_review = ? WHERE id = ?
	`, difficulty, nextReview, id)
	if err != nil {
		return fmt.Errorf("failed to update review for card %d: %w", id, err)
	}
	return checkFound(res, id)
}

// MarkRead records that the card has been opened for detailed viewing.
// Marking an already-read card again succeeds and changes nothing.
func (db *DB) MarkRead(id int64) error {
	res, err := db.conn.Exec(`UPDATE cards SET is_read = TRUE WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to mark card %d as read: %w", id, err)
	}
	return checkFound(res, id)
}

func checkFound(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected for card %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("card %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

// DeleteCard removes a single card and renumbers the survivors.
func (db *DB) DeleteCard(id int64) error {
	return db.DeleteCards([]int64{id})
}

// DeleteCards removes the given cards and reassigns display_order 1..N to
// the survivors in their previous relative order. Delete and renumber run
// in one transaction so a failure can never leave gapped or duplicate
// orders visible.
func (db *DB) DeleteCards(ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin delete transaction: %w", err)
	}
	defer tx.Rollback()

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	res, err := tx.Exec(`DELETE FROM cards WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return fmt.Errorf("failed to delete cards: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}

	if err := renumber(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit card delete: %w", err)
	}
	return nil
}

// renumber reassigns display_order 1..N by the current order of survivors.
func renumber(tx *sql.Tx) error {
	rows, err := tx.Query(`SELECT id FROM cards ORDER BY display_order`)
	if err != nil {
		return fmt.Errorf("failed to list cards for renumbering: %w", err)
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan card id for renumbering: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("failed to iterate cards for renumbering: %w", err)
	}
	rows.Close()

	for order, id := range ids {
		if _, err := tx.Exec(`UPDATE cards SET display_order = ? WHERE id = ?`, order+1, id); err != nil {
			return fmt.Errorf("failed to renumber card %d: %w", id, err)
		}
	}
	return nil
}

const cardColumnsSQL = `id, question, answer, difficulty, next_review, is_read, display_order`

func scanCard(scan func(dest ...any) error) (domain.Card, error) {
	var (
		card       domain.Card
		nextReview sql.NullString
	)
	err := scan(
		&card.ID,
		&card.Question,
		&card.Answer,
		&card.Difficulty,
		&nextReview,
		&card.IsRead,
		&card.DisplayOrder,
	)
	if err != nil {
		return domain.Card{}, err
	}
	card.NextReview = nextReview.String
	return card, nil
}

// GetCard retrieves a single card by id.
func (db *DB) GetCard(id int64) (domain.Card, error) {
	row := db.conn.QueryRow(`SELECT `+cardColumnsSQL+` FROM cards WHERE id = ?`, id)
	card, err := scanCard(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Card{}, fmt.Errorf("card %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Card{}, fmt.Errorf("failed to get card %d: %w", id, err)
	}
	return card, nil
}

// ListCards returns all cards in ascending display order. A non-empty
// searchTerm keeps only cards whose question or answer contains it as a
// case-sensitive substring; instr is used instead of LIKE because SQLite's
// LIKE folds ASCII case.
func (db *DB) ListCards(searchTerm string) ([]domain.Card, error) {
	query := `SELECT ` + cardColumnsSQL + ` FROM cards`
	var args []any
	if searchTerm != "" {
		query += ` WHERE instr(question, ?) > 0 OR instr(answer, ?) > 0`
		args = append(args, searchTerm, searchTerm)
	}
	query += ` ORDER BY display_order`

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	defer rows.Close()

	var cards []domain.Card
	for rows.Next() {
		card, err := scanCard(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card row: %w", err)
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate card rows: %w", err)
	}
	return cards, nil
}

// HasContentHash reports whether any card carries the given fingerprint.
func (db *DB) HasContentHash(hash string) (bool, error) {
	var n int
	err := db.conn.QueryRow(`SELECT COUNT(*) FROM cards WHERE content_hash = ?`, hash).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to look up content hash: %w", err)
	}
	return n > 0, nil
}

// CountCards returns the total number of cards.
func (db *DB) CountCards() (int, error) {
	var n int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM cards`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count cards: %w", err)
	}
	return n, nil
}

// CountDue returns the number of cards due on or before the given ISO date.
// Cards without a review date count as due.
func (db *DB) CountDue(asOf string) (int, error) {
	var n int
	err := db.conn.QueryRow(`
		SELECT COUNT(*) FROM cards WHERE next_review <= ? OR next_review IS NULL
	`, asOf).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count due cards: %w", err)
	}
	return n, nil
}

// CountUnread returns the number of cards never opened for viewing.
func (db *DB) CountUnread() (int, error) {
	var n int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM cards WHERE is_read = FALSE`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count unread cards: %w", err)
	}
	return n, nil
}

// CountByDifficulty returns the card count per difficulty level.
func (db *DB) CountByDifficulty() (map[int]int, error) {
	rows, err := db.conn.Query(`SELECT difficulty, COUNT(*) FROM cards GROUP BY difficulty`)
	if err != nil {
		return nil, fmt.Errorf("failed to count cards by difficulty: %w", err)
	}
	defer rows.Close()

	counts := make(map[int]int)
	for rows.Next() {
		var difficulty, n int
		if err := rows.Scan(&difficulty, &n); err != nil {
			return nil, fmt.Errorf("failed to scan difficulty count: %w", err)
		}
		counts[difficulty] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate difficulty counts: %w", err)
	}
	return counts, nil
}

// QuizFilter narrows the card set a quiz draws from.
type QuizFilter struct {
	Bucket  domain.DifficultyBucket
	DueOnly bool
	AsOf    string // ISO date used for the due predicate; defaults to today
	Limit   int
}

// PickQuizCards returns a uniformly random subset of the cards matching the
// filter, at most Limit of them. An empty result is not an error.
func (db *DB) PickQuizCards(filter QuizFilter) ([]domain.Card, error) {
	query := `SELECT ` + cardColumnsSQL + ` FROM cards`
	var (
		conditions []string
		args       []any
	)

	if lo, hi, ok := filter.Bucket.Range(); ok {
		conditions = append(conditions, `difficulty BETWEEN ? AND ?`)
		args = append(args, lo, hi)
	}
	if filter.DueOnly {
		asOf := filter.AsOf
		if asOf == "" {
			asOf = Today()
		}
		conditions = append(conditions, `(next_review <= ? OR next_review IS NULL)`)
		args = append(args, asOf)
	}
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, ` AND `)
	}
	query += ` ORDER BY RANDOM() LIMIT ?`
	args = append(args, filter.Limit)

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pick quiz cards: %w", err)
	}
	defer rows.Close()

	var cards []domain.Card
	for rows.Next() {
		card, err := scanCard(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quiz card row: %w", err)
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate quiz card rows: %w", err)
	}
	return cards, nil
}
