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

// OutlineToolName is the registered name of the course outline tool.
const OutlineToolName = "get_course_outline"

// OutlineTool returns a course's full lesson outline from the catalog.
type OutlineTool struct {
	store knowledge.Store
}

var _ Tool = (*OutlineTool)(nil)

// NewOutlineTool creates an OutlineTool over the given store.
func NewOutlineTool(store knowledge.Store) *OutlineTool {
	return &OutlineTool{store: store}
}

func (t *OutlineTool) Name() string { return OutlineToolName }

func (t *OutlineTool) Definition() provider.ToolDefinition {
	return provider.ToolDefinition{
		Name:        OutlineToolName,
		Description: "Get the complete outline of a course including its title, link, and all lessons",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"course_name": map[string]any{
					"type":        "string",
					"description": "Course title (partial matches work, e.g. 'MCP', 'Introduction')",
				},
			},
			"required": []any{"course_name"},
		},
	}
}

// Execute resolves the course and renders its outline.
func (t *OutlineTool) Execute(ctx context.Context, args map[string]any) (*Result, error) {
	courseName, err := stringArg(args, "course_name")
	if err != nil {
		return nil, err
	}
	if courseName == "" {
		return nil, lecternerr.New(lecternerr.CodeToolInvalidArguments, "argument \"course_name\" is required")
	}

	course, err := t.store.ResolveCourse(ctx, courseName)
	if err != nil {
		if lecternerr.IsNotFound(err) {
			return &Result{Content: "No course found matching '" + courseName + "'."}, nil
		}
		return nil, err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Course: %s\n", course.Title)
	if course.Link != "" {
		fmt.Fprintf(&sb, "Course Link: %s\n", course.Link)
	}
	if course.Instructor != "" {
		fmt.Fprintf(&sb, "Instructor: %s\n", course.Instructor)
	}
	fmt.Fprintf(&sb, "Lessons (%d):\n", len(course.Lessons))
	for _, lesson := range course.Lessons {
		fmt.Fprintf(&sb, "  %d. %s\n", lesson.Number, lesson.Title)
	}

	return &Result{
		Content: sb.String(),
		Sources: []Source{{Label: course.Title, Link: course.Link}},
	}, nil
}
