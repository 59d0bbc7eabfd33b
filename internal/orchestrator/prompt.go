// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectern Contributors

package orchestrator

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	lecternerr "github.com/lectern-ai/lectern/pkg/errors"
)

// DefaultSystemPrompt declares the assistant's multi-round tool-use
// capability. It can be overridden with a prompt file (see LoadPrompt).
const DefaultSystemPrompt = `You are an AI assistant specialized in course materials and educational content with access to comprehensive search and outline tools for course information.

Tool Usage Guidelines:
- **Course Content Search**: Use ` + "`search_course_content`" + ` for questions about specific course content or detailed educational materials
- **Course Outline**: Use ` + "`get_course_outline`" + ` for questions about course structure, lesson lists, course overview, or table of contents
- **Multi-round reasoning**: You can make multiple tool calls across rounds to gather comprehensive information
- **Progressive refinement**: If you need additional information after seeing tool results, you can make another tool call in the next round
- Synthesize tool results into accurate, fact-based responses
- If tools yield no results, state this clearly without offering alternatives

Response Protocol:
- **General knowledge questions**: Answer using existing knowledge without tools
- **Course content questions**: Use search tool first, then answer
- **Course outline/structure questions**: Use outline tool first, then answer
- **Complex queries**: Break down into multiple tool calls across rounds if needed
- **No meta-commentary**: Provide direct answers only — no reasoning process, tool explanations, or question-type analysis

All responses must be brief, educational, clear, and example-supported when examples aid understanding. Provide only the direct answer to what was asked.`

// Prompt is a loaded system-prompt template.
type Prompt struct {
	Name        string
	Description string
	Content     string
}

// promptFrontmatter is the intermediate struct for YAML parsing.
type promptFrontmatter struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// LoadPrompt reads a prompt file and returns its content. Files may
// carry YAML frontmatter delimited by "---" lines with a name and
// description; plain files are used verbatim.
func LoadPrompt(path string) (*Prompt, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, lecternerr.Wrapf(err, lecternerr.CodePromptParseInvalid, "reading prompt file %s", path)
	}

	content := string(data)
	if !strings.HasPrefix(content, "---\n") {
		return &Prompt{Content: strings.TrimSpace(content)}, nil
	}

	rest := content[4:] // skip opening "---\n"
	idx := strings.Index(rest, "\n---\n")
	if idx < 0 {
		return nil, lecternerr.Errorf(lecternerr.CodePromptParseInvalid, "prompt file %s: missing closing frontmatter delimiter", path)
	}

	frontmatterRaw := rest[:idx]
	body := rest[idx+5:] // skip "\n---\n"

	var fm promptFrontmatter
	if err := yaml.Unmarshal([]byte(frontmatterRaw), &fm); err != nil {
		return nil, lecternerr.Wrapf(err, lecternerr.CodePromptParseInvalid, "prompt file %s: parsing frontmatter", path)
	}

	return &Prompt{
		Name:        fm.Name,
		Description: fm.Description,
		Content:     strings.TrimSpace(body),
	}, nil
}
