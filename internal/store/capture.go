package store

import (
	"database/sql"
	"errors"
	"time"
)

// Capture is a photo taken when a tracked face became stable.
type Capture struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Subject   string    `json:"subject"`
	Streak    int       `json:"streak"`
	Path      string    `json:"path"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// CaptureRepository provides CRUD operations for captures.
type CaptureRepository struct {
	db *sql.DB
}

// Captures returns the capture repository for this store.
func (s *Store) Captures() *CaptureRepository {
	return &CaptureRepository{db: s.db}
}

const captureColumns = `id, session_id, subject, streak, path, size_bytes, created_at`

// Create inserts a new capture. CreatedAt is set when zero.
func (r *CaptureRepository) Create(c *Capture) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO captures (`+captureColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.SessionID, c.Subject, c.Streak, c.Path, c.SizeBytes, c.CreatedAt,
	)
	return err
}

// GetByID retrieves a capture by its ID.
func (r *CaptureRepository) GetByID(id string) (*Capture, error) {
	c := &Capture{}
	err := r.db.QueryRow(
		`SELECT `+captureColumns+` FROM captures WHERE id = ?`,
		id,
	).Scan(&c.ID, &c.SessionID, &c.Subject, &c.Streak, &c.Path, &c.SizeBytes, &c.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return c, nil
}

// List retrieves the most recent captures, newest first.
// A limit of zero or less returns all captures.
func (r *CaptureRepository) List(limit int) ([]*Capture, error) {
	if limit <= 0 {
		limit = -1
	}
	return r.query(
		`SELECT `+captureColumns+` FROM captures ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
}

// ListBySession retrieves all captures taken during a session, oldest first.
func (r *CaptureRepository) ListBySession(sessionID string) ([]*Capture, error) {
	return r.query(
		`SELECT `+captureColumns+` FROM captures WHERE session_id = ? ORDER BY created_at ASC`,
		sessionID,
	)
}

func (r *CaptureRepository) query(q string, args ...any) ([]*Capture, error) {
	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var captures []*Capture
	for rows.Next() {
		c := &Capture{}
		if err := rows.Scan(&c.ID, &c.SessionID, &c.Subject, &c.Streak, &c.Path, &c.SizeBytes, &c.CreatedAt); err != nil {
			return nil, err
		}
		captures = append(captures, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return captures, nil
}

// Delete removes a capture record by its ID. The photo file is left in place.
func (r *CaptureRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM captures WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
