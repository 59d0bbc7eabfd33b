// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectern Contributors

package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/lectern-ai/lectern/internal/knowledge"
	"github.com/lectern-ai/lectern/internal/provider"
	lecternerr "github.com/lectern-ai/lectern/pkg/errors"
)

// SearchToolName is the registered name of the content search tool.
const SearchToolName = "search_course_content"

// defaultSearchLimit bounds how many chunks a single search returns.
const defaultSearchLimit = 5

// SearchTool retrieves lesson content from the course index.
type SearchTool struct {
	store knowledge.Store
}

var _ Tool = (*SearchTool)(nil)

// NewSearchTool creates a SearchTool over the given store.
func NewSearchTool(store knowledge.Store) *SearchTool {
	return &SearchTool{store: store}
}

func (t *SearchTool) Name() string { return SearchToolName }

func (t *SearchTool) Definition() provider.ToolDefinition {
	return provider.ToolDefinition{
		Name:        SearchToolName,
		Description: "Search course materials with smart course name matching and lesson filtering",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "What to search for in the course content",
				},
				"course_name": map[string]any{
					"type":        "string",
					"description": "Course title (partial matches work, e.g. 'MCP', 'Introduction')",
				},
				"lesson_number": map[string]any{
					"type":        "integer",
					"description": "Specific lesson number to search within (e.g. 1, 2, 3)",
				},
			},
			"required": []any{"query"},
		},
	}
}

// Execute runs a scoped full-text search and formats each hit with its
// course and lesson provenance.
func (t *SearchTool) Execute(ctx context.Context, args map[string]any) (*Result, error) {
	query, err := stringArg(args, "query")
	if err != nil {
		return nil, err
	}
	if query == "" {
		return nil, lecternerr.New(lecternerr.CodeToolInvalidArguments, "argument \"query\" is required")
	}

	courseName, err := stringArg(args, "course_name")
	if err != nil {
		return nil, err
	}
	lessonNumber, err := intArg(args, "lesson_number")
	if err != nil {
		return nil, err
	}

	results, err := t.store.Search(ctx, query, knowledge.SearchOptions{
		CourseName:   courseName,
		LessonNumber: lessonNumber,
		Limit:        defaultSearchLimit,
	})
	if err != nil {
		return nil, err
	}

	if len(results) == 0 {
		return &Result{Content: emptySearchMessage(courseName, lessonNumber)}, nil
	}

	var sb strings.Builder
	var sources []Source
	seen := make(map[string]bool)

	for i, r := range results {
		label := fmt.Sprintf("%s - Lesson %d", r.CourseTitle, r.LessonNumber)
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "[%s]\n%s", label, r.Content)

		if !seen[label] {
			seen[label] = true
			sources = append(sources, Source{Label: label, Link: r.LessonLink})
		}
	}

	return &Result{Content: sb.String(), Sources: sources}, nil
}

// emptySearchMessage describes an empty result set in terms of the
// filters that were applied.
func emptySearchMessage(courseName string, lessonNumber *int) string {
	msg := "No relevant content found"
	if courseName != "" {
		msg += " in course '" + courseName + "'"
	}
	if lessonNumber != nil {
		msg += fmt.Sprintf(" in lesson %d", *lessonNumber)
	}
	return msg + "."
}
