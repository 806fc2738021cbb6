package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ErrCompetitorExists is returned when inserting a competitor whose name is taken.
var ErrCompetitorExists = errors.New("competitor already exists")

// InsertCompetitor adds a new competitor. Names are unique; a name collision
// returns ErrCompetitorExists.
func (db *DB) InsertCompetitor(name, website, feedURL, description string) (int64, error) {
	result, err := db.conn.Exec(
		`INSERT INTO competitors (name, website, feed_url, description) VALUES (?, ?, ?, ?)`,
		name, website, feedURL, description,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrCompetitorExists
		}
		return 0, fmt.Errorf("inserting competitor: %w", err)
	}
	return result.LastInsertId()
}

// SeedCompetitor inserts a competitor if the name is not already present.
// Used for idempotent default seeding at startup.
func (db *DB) SeedCompetitor(name, website, feedURL, description string) error {
	_, err := db.InsertCompetitor(name, website, feedURL, description)
	if errors.Is(err, ErrCompetitorExists) {
		return nil
	}
	return err
}

// GetCompetitor returns a competitor by name, or nil if it does not exist.
func (db *DB) GetCompetitor(name string) (*Competitor, error) {
	row := db.conn.QueryRow(
		`SELECT id, name, website, feed_url, description, created_at
		FROM competitors WHERE name = ?`, name,
	)
	var c Competitor
	err := row.Scan(&c.ID, &c.Name, &c.Website, &c.FeedURL, &c.Description, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCompetitors returns all competitors ordered by name.
func (db *DB) ListCompetitors() ([]Competitor, error) {
	rows, err := db.conn.Query(
		`SELECT id, name, website, feed_url, description, created_at
		FROM competitors ORDER BY name`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var competitors []Competitor
	for rows.Next() {
		var c Competitor
		if err := rows.Scan(&c.ID, &c.Name, &c.Website, &c.FeedURL, &c.Description, &c.CreatedAt); err != nil {
			return nil, err
		}
		competitors = append(competitors, c)
	}
	return competitors, rows.Err()
}

// DeleteCompetitor removes a competitor and all of its articles in one
// transaction. Returns false if the competitor does not exist.
func (db *DB) DeleteCompetitor(name string) (bool, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return false, fmt.Errorf("begin delete: %w", err)
	}

	result, err := tx.Exec("DELETE FROM competitors WHERE name = ?", name)
	if err != nil {
		tx.Rollback()
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		tx.Rollback()
		return false, err
	}
	if affected == 0 {
		tx.Rollback()
		return false, nil
	}

	if _, err := tx.Exec("DELETE FROM articles WHERE competitor = ?", name); err != nil {
		tx.Rollback()
		return false, err
	}

	return true, tx.Commit()
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
