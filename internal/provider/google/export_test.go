// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectern Contributors

package google

import (
	"google.golang.org/genai"

	"github.com/lectern-ai/lectern/internal/provider"
)

// ConvertMessages exposes convertMessages for white-box testing.
var ConvertMessages = func(msgs []provider.Message) ([]*genai.Content, error) {
	return convertMessages(msgs)
}

// ConvertTools exposes convertTools for white-box testing.
var ConvertTools = convertTools

// ClassifyError exposes classifyError for white-box testing.
var ClassifyError = classifyError
