// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectern Contributors

package knowledge

import (
	"context"
	"database/sql"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	lecternerr "github.com/lectern-ai/lectern/pkg/errors"
)

// Compile-time interface check.
var _ Store = (*SQLiteStore)(nil)

// SQLiteStore implements Store backed by SQLite with FTS5.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and
// initialises the catalog tables with FTS5 full-text search over chunks.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, lecternerr.Errorf(lecternerr.CodeStoreDatabaseFailure, "opening sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, lecternerr.Errorf(lecternerr.CodeStoreDatabaseFailure, "pinging sqlite db: %w", err)
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, lecternerr.Errorf(lecternerr.CodeStoreDatabaseFailure, "migrating knowledge tables: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS courses (
	title      TEXT PRIMARY KEY,
	link       TEXT NOT NULL DEFAULT '',
	instructor TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS lessons (
	course_title  TEXT NOT NULL REFERENCES courses(title) ON DELETE CASCADE,
	lesson_number INTEGER NOT NULL,
	title         TEXT NOT NULL,
	link          TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (course_title, lesson_number)
);

CREATE TABLE IF NOT EXISTS chunks (
	rowid         INTEGER PRIMARY KEY AUTOINCREMENT,
	course_title  TEXT NOT NULL,
	lesson_number INTEGER NOT NULL DEFAULT 0,
	content       TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_chunks_course ON chunks(course_title, lesson_number);

CREATE VIRTUAL TABLE IF NOT EXISTS chunks_fts USING fts5(
	content,
	content='chunks',
	content_rowid='rowid'
);

-- Triggers to keep FTS index in sync with the main table.
CREATE TRIGGER IF NOT EXISTS chunks_ai AFTER INSERT ON chunks BEGIN
	INSERT INTO chunks_fts(rowid, content) VALUES (new.rowid, new.content);
END;

CREATE TRIGGER IF NOT EXISTS chunks_ad AFTER DELETE ON chunks BEGIN
	INSERT INTO chunks_fts(chunks_fts, rowid, content) VALUES ('delete', old.rowid, old.content);
END;

CREATE TRIGGER IF NOT EXISTS chunks_au AFTER UPDATE ON chunks BEGIN
	INSERT INTO chunks_fts(chunks_fts, rowid, content) VALUES ('delete', old.rowid, old.content);
	INSERT INTO chunks_fts(rowid, content) VALUES (new.rowid, new.content);
END;
`
	_, err := db.Exec(ddl)
	return err
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// AddCourse upserts a course and replaces its lesson outline.
func (s *SQLiteStore) AddCourse(ctx context.Context, course *Course) error {
	if course.Title == "" {
		return lecternerr.New(lecternerr.CodeStoreInvalidInput, "course title is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return lecternerr.Errorf(lecternerr.CodeStoreDatabaseFailure, "beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const upsert = `INSERT INTO courses (title, link, instructor) VALUES (?, ?, ?)
ON CONFLICT(title) DO UPDATE SET link = excluded.link, instructor = excluded.instructor`
	if _, err := tx.ExecContext(ctx, upsert, course.Title, course.Link, course.Instructor); err != nil {
		return lecternerr.Errorf(lecternerr.CodeStoreDatabaseFailure, "upserting course %s: %w", course.Title, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM lessons WHERE course_title = ?`, course.Title); err != nil {
		return lecternerr.Errorf(lecternerr.CodeStoreDatabaseFailure, "clearing lessons for %s: %w", course.Title, err)
	}

	const insertLesson = `INSERT INTO lessons (course_title, lesson_number, title, link) VALUES (?, ?, ?, ?)`
	for _, lesson := range course.Lessons {
		if _, err := tx.ExecContext(ctx, insertLesson, course.Title, lesson.Number, lesson.Title, lesson.Link); err != nil {
			return lecternerr.Errorf(lecternerr.CodeStoreDatabaseFailure, "inserting lesson %d of %s: %w", lesson.Number, course.Title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return lecternerr.Errorf(lecternerr.CodeStoreDatabaseFailure, "committing course %s: %w", course.Title, err)
	}
	return nil
}

// AddChunks indexes content fragments for retrieval.
func (s *SQLiteStore) AddChunks(ctx context.Context, chunks []*Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return lecternerr.Errorf(lecternerr.CodeStoreDatabaseFailure, "beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const q = `INSERT INTO chunks (course_title, lesson_number, content) VALUES (?, ?, ?)`
	for _, chunk := range chunks {
		if _, err := tx.ExecContext(ctx, q, chunk.CourseTitle, chunk.LessonNumber, chunk.Content); err != nil {
			return lecternerr.Errorf(lecternerr.CodeStoreDatabaseFailure, "inserting chunk for %s: %w", chunk.CourseTitle, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return lecternerr.Errorf(lecternerr.CodeStoreDatabaseFailure, "committing chunks: %w", err)
	}
	return nil
}

// Search performs a full-text search over indexed chunks. A CourseName
// option is resolved against the catalog first so partial names scope
// the search; an unresolvable name is an error the caller can surface.
func (s *SQLiteStore) Search(ctx context.Context, query string, opts SearchOptions) ([]SearchResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 5
	}

	var courseTitle string
	if opts.CourseName != "" {
		course, err := s.ResolveCourse(ctx, opts.CourseName)
		if err != nil {
			return nil, err
		}
		courseTitle = course.Title
	}

	q := `SELECT c.course_title, c.lesson_number, c.content, COALESCE(l.link, '')
FROM chunks c
JOIN chunks_fts fts ON c.rowid = fts.rowid
LEFT JOIN lessons l ON l.course_title = c.course_title AND l.lesson_number = c.lesson_number
WHERE fts.content MATCH ?`
	args := []any{quoteFTSQuery(query)}

	if courseTitle != "" {
		q += ` AND c.course_title = ?`
		args = append(args, courseTitle)
	}
	if opts.LessonNumber != nil {
		q += ` AND c.lesson_number = ?`
		args = append(args, *opts.LessonNumber)
	}

	q += ` ORDER BY rank LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, lecternerr.Errorf(lecternerr.CodeKnowledgeQueryFailure, "searching chunks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.CourseTitle, &r.LessonNumber, &r.Content, &r.LessonLink); err != nil {
			return nil, lecternerr.Errorf(lecternerr.CodeKnowledgeQueryFailure, "scanning search row: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, lecternerr.Errorf(lecternerr.CodeKnowledgeQueryFailure, "reading search rows: %w", err)
	}
	return results, nil
}

// ResolveCourse matches a partial, case-insensitive course name against
// the catalog. Exact title matches win over substring matches.
func (s *SQLiteStore) ResolveCourse(ctx context.Context, name string) (*Course, error) {
	if name == "" {
		return nil, lecternerr.New(lecternerr.CodeStoreInvalidInput, "course name is required")
	}

	const q = `SELECT title, link, instructor FROM courses
WHERE title = ? COLLATE NOCASE
   OR title LIKE ? ESCAPE '\' COLLATE NOCASE
ORDER BY (title = ? COLLATE NOCASE) DESC, title ASC
LIMIT 1`

	pattern := "%" + escapeLike(name) + "%"
	row := s.db.QueryRowContext(ctx, q, name, pattern, name)

	course := &Course{}
	if err := row.Scan(&course.Title, &course.Link, &course.Instructor); err != nil {
		if err == sql.ErrNoRows {
			return nil, lecternerr.New(
				lecternerr.CodeKnowledgeCourseNotFound,
				"no course found matching '"+name+"'",
			)
		}
		return nil, lecternerr.Errorf(lecternerr.CodeKnowledgeQueryFailure, "resolving course %s: %w", name, err)
	}

	lessons, err := s.lessonsFor(ctx, course.Title)
	if err != nil {
		return nil, err
	}
	course.Lessons = lessons
	return course, nil
}

// CourseTitles lists all indexed course titles in catalog order.
func (s *SQLiteStore) CourseTitles(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT title FROM courses ORDER BY title ASC`)
	if err != nil {
		return nil, lecternerr.Errorf(lecternerr.CodeKnowledgeQueryFailure, "listing course titles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var titles []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, lecternerr.Errorf(lecternerr.CodeKnowledgeQueryFailure, "scanning course title: %w", err)
		}
		titles = append(titles, title)
	}
	if err := rows.Err(); err != nil {
		return nil, lecternerr.Errorf(lecternerr.CodeKnowledgeQueryFailure, "reading course titles: %w", err)
	}
	return titles, nil
}

func (s *SQLiteStore) lessonsFor(ctx context.Context, courseTitle string) ([]Lesson, error) {
	const q = `SELECT lesson_number, title, link FROM lessons
WHERE course_title = ? ORDER BY lesson_number ASC`

	rows, err := s.db.QueryContext(ctx, q, courseTitle)
	if err != nil {
		return nil, lecternerr.Errorf(lecternerr.CodeKnowledgeQueryFailure, "listing lessons for %s: %w", courseTitle, err)
	}
	defer func() { _ = rows.Close() }()

	var lessons []Lesson
	for rows.Next() {
		var lesson Lesson
		if err := rows.Scan(&lesson.Number, &lesson.Title, &lesson.Link); err != nil {
			return nil, lecternerr.Errorf(lecternerr.CodeKnowledgeQueryFailure, "scanning lesson row: %w", err)
		}
		lessons = append(lessons, lesson)
	}
	if err := rows.Err(); err != nil {
		return nil, lecternerr.Errorf(lecternerr.CodeKnowledgeQueryFailure, "reading lesson rows: %w", err)
	}
	return lessons, nil
}

// quoteFTSQuery quotes each term of the user query so FTS5 matches all
// terms without interpreting operators like OR, NOT, and NEAR.
func quoteFTSQuery(query string) string {
	terms := strings.Fields(query)
	quoted := make([]string, 0, len(terms))
	for _, term := range terms {
		quoted = append(quoted, `"`+strings.ReplaceAll(term, `"`, `""`)+`"`)
	}
	return strings.Join(quoted, " ")
}

// escapeLike escapes LIKE wildcards in user input.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
