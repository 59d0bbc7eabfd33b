// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectern Contributors

// Package knowledge stores the indexed course catalog and serves
// full-text retrieval over lesson content.
package knowledge

import "context"

// Course is one indexed course with its lesson outline.
type Course struct {
	Title      string
	Link       string
	Instructor string
	Lessons    []Lesson
}

// Lesson is one entry in a course outline.
type Lesson struct {
	Number int
	Title  string
	Link   string
}

// Chunk is an indexed fragment of lesson content.
type Chunk struct {
	CourseTitle  string
	LessonNumber int
	Content      string
}

// SearchResult is one retrieval hit with its provenance.
type SearchResult struct {
	CourseTitle  string
	LessonNumber int
	LessonLink   string
	Content      string
}

// SearchOptions narrows a content search. CourseName may be a partial,
// case-insensitive course title; LessonNumber of nil means all lessons.
type SearchOptions struct {
	CourseName   string
	LessonNumber *int
	Limit        int
}

// Store is the persistence interface for the course index.
type Store interface {
	// AddCourse upserts a course and its lesson outline.
	AddCourse(ctx context.Context, course *Course) error

	// AddChunks indexes content fragments for retrieval.
	AddChunks(ctx context.Context, chunks []*Chunk) error

	// Search runs a full-text query over indexed chunks, optionally
	// scoped to a resolved course and lesson.
	Search(ctx context.Context, query string, opts SearchOptions) ([]SearchResult, error)

	// ResolveCourse matches a partial course name against the catalog.
	ResolveCourse(ctx context.Context, name string) (*Course, error)

	// CourseTitles lists all indexed course titles.
	CourseTitles(ctx context.Context) ([]string, error)

	Close() error
}
