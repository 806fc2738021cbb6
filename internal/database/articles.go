package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// InsertArticle persists an article keyed by URL. A duplicate URL is a
// no-op: the ID returned is 0 and the error nil. Other failures propagate.
// An empty FetchedAt defaults to the current time. Safe under concurrent
// insert attempts for the same URL; exactly one wins.
func (db *DB) InsertArticle(a Article) (int64, error) {
	status := a.Status
	if status == "" {
		status = StatusPending
	}
	fetchedAt := a.FetchedAt
	if fetchedAt == "" {
		fetchedAt = time.Now().UTC().Format(TimeFormat)
	}

	result, err := db.conn.Exec(
		`INSERT INTO articles (competitor, url, title, content, summary, status, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.Competitor, a.URL, a.Title, a.Content, a.Summary, status, fetchedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("inserting article: %w", err)
	}
	return result.LastInsertId()
}

// ArticlesByCompetitor returns all articles for a competitor name, newest first.
func (db *DB) ArticlesByCompetitor(name string) ([]Article, error) {
	rows, err := db.conn.Query(
		`SELECT id, competitor, url, title, content, summary, status, fetched_at
		FROM articles WHERE competitor = ? ORDER BY fetched_at DESC`, name,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanArticles(rows)
}

// ArticlesSince returns articles fetched at or after the given time, newest first.
func (db *DB) ArticlesSince(since time.Time) ([]Article, error) {
	rows, err := db.conn.Query(
		`SELECT id, competitor, url, title, content, summary, status, fetched_at
		FROM articles WHERE fetched_at >= ? ORDER BY fetched_at DESC`,
		since.UTC().Format(TimeFormat),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanArticles(rows)
}

// ArticlesByStatus returns articles whose status is one of the given values,
// newest first.
func (db *DB) ArticlesByStatus(statuses ...string) ([]Article, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	placeholders := strings.Repeat("?,", len(statuses))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, len(statuses))
	for i, s := range statuses {
		args[i] = s
	}

	rows, err := db.conn.Query(
		`SELECT id, competitor, url, title, content, summary, status, fetched_at
		FROM articles WHERE status IN (`+placeholders+`) ORDER BY fetched_at DESC`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanArticles(rows)
}

// RecentArticles returns the most recently fetched articles, capped at limit.
func (db *DB) RecentArticles(limit int) ([]Article, error) {
	rows, err := db.conn.Query(
		`SELECT id, competitor, url, title, content, summary, status, fetched_at
		FROM articles ORDER BY fetched_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanArticles(rows)
}

// GetArticle returns a single article by ID, or nil if it does not exist.
func (db *DB) GetArticle(id int64) (*Article, error) {
	row := db.conn.QueryRow(
		`SELECT id, competitor, url, title, content, summary, status, fetched_at
		FROM articles WHERE id = ?`, id,
	)
	var a Article
	err := row.Scan(&a.ID, &a.Competitor, &a.URL, &a.Title, &a.Content, &a.Summary, &a.Status, &a.FetchedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// UpdateArticleStatus sets the triage status for an article.
// Returns false if the article does not exist.
func (db *DB) UpdateArticleStatus(id int64, status string) (bool, error) {
	result, err := db.conn.Exec("UPDATE articles SET status = ? WHERE id = ?", status, id)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// CountByStatus returns the number of articles with the given status.
func (db *DB) CountByStatus(status string) (int, error) {
	var n int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM articles WHERE status = ?", status).Scan(&n)
	return n, err
}

// CountSince returns the number of articles fetched at or after the given time.
func (db *DB) CountSince(since time.Time) (int, error) {
	var n int
	err := db.conn.QueryRow(
		"SELECT COUNT(*) FROM articles WHERE fetched_at >= ?",
		since.UTC().Format(TimeFormat),
	).Scan(&n)
	return n, err
}

// CountCriticalTitles counts articles whose title contains any of the given
// keywords, case-insensitively. This is the KPI rule: it matches the title
// alone, not the summary.
func (db *DB) CountCriticalTitles(keywords []string) (int, error) {
	if len(keywords) == 0 {
		return 0, nil
	}

	conditions := make([]string, len(keywords))
	args := make([]any, len(keywords))
	for i, kw := range keywords {
		conditions[i] = "lower(title) LIKE ?"
		args[i] = "%" + strings.ToLower(kw) + "%"
	}

	var n int
	err := db.conn.QueryRow(
		"SELECT COUNT(*) FROM articles WHERE "+strings.Join(conditions, " OR "),
		args...,
	).Scan(&n)
	return n, err
}

func scanArticles(rows *sql.Rows) ([]Article, error) {
	var articles []Article
	for rows.Next() {
		var a Article
		if err := rows.Scan(&a.ID, &a.Competitor, &a.URL, &a.Title, &a.Content, &a.Summary, &a.Status, &a.FetchedAt); err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}
