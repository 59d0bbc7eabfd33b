// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectern Contributors

package errors

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/samber/oops"
)

// Code is the machine-readable identifier for an error.
type Code string

const (
	CodeConfigLoadReadFailure      Code = "config.load.read.failure"
	CodeConfigParseInvalidFormat   Code = "config.parse.invalid_format"
	CodeConfigValidateInvalidValue Code = "config.validate.invalid_value"

	CodeProviderRequestInvalid   Code = "provider.request.invalid"
	CodeProviderResponseInvalid  Code = "provider.response.invalid"
	CodeProviderTransientFailure Code = "provider.completion.transient_failure"
	CodeProviderFatalFailure     Code = "provider.completion.fatal_failure"
	CodeProviderNotFound         Code = "provider.registry.not_found"
	CodeProviderNoDefault        Code = "provider.routing.no_default"
	CodeProviderInvalidModelRef  Code = "provider.routing.invalid_model_ref"

	CodeOrchestratorInvalidInput Code = "orchestrator.run.invalid_input"
	CodeOrchestratorCancelled    Code = "orchestrator.run.cancelled"
	CodeOrchestratorRunFailure   Code = "orchestrator.run.failure"

	CodeToolNotFound         Code = "tool.registry.not_found"
	CodeToolTimeout          Code = "tool.execute.timeout"
	CodeToolInvalidArguments Code = "tool.arguments.invalid"

	CodeKnowledgeQueryFailure   Code = "knowledge.query.database_failure"
	CodeKnowledgeCourseNotFound Code = "knowledge.course.not_found"

	CodeStoreDatabaseFailure    Code = "store.database.failure"
	CodeStoreBackendUnsupported Code = "store.backend.unsupported"
	CodeStoreInvalidInput       Code = "store.invalid_input"

	CodePromptParseInvalid Code = "prompt.parse.invalid"

	CodeCLIInputInvalid Code = "cli.input.invalid"
	CodeCLISetupFailure Code = "cli.setup.failure"
	CodeInternalFailure Code = "internal.failure"
)

// Attr is a structured key/value context attached to an error.
type Attr struct {
	Key   string
	Value any
}

// Field creates a structured error field.
func Field(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

func FieldSessionID(value string) Attr {
	return Field("session_id", value)
}

func FieldProvider(value string) Attr {
	return Field("provider", value)
}

func FieldTool(value string) Attr {
	return Field("tool", value)
}

func FieldRound(value int) Attr {
	return Field("round", value)
}

func New(code Code, msg string, fields ...Attr) error {
	return oops.Code(code).With(flatten(fields)...).New(msg)
}

func Errorf(code Code, format string, args ...any) error {
	return oops.Code(code).Errorf(format, args...)
}

func Wrap(err error, code Code, msg string, fields ...Attr) error {
	if err == nil {
		return nil
	}

	return oops.Code(code).With(flatten(fields)...).Wrapf(err, "%s", msg)
}

func Wrapf(err error, code Code, format string, args ...any) error {
	if err == nil {
		return nil
	}

	return oops.Code(code).Wrapf(err, format, args...)
}

// With adds structured fields to an existing error chain.
func With(err error, fields ...Attr) error {
	if err == nil {
		return nil
	}

	code := CodeOf(err)
	if code == "" {
		code = CodeInternalFailure
	}

	return oops.Code(code).With(flatten(fields)...).Wrap(err)
}

func CodeOf(err error) Code {
	if err == nil {
		return ""
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}

	if code, ok := oopsErr.Code().(Code); ok {
		return code
	}

	if code, ok := oopsErr.Code().(string); ok {
		return Code(code)
	}

	return Code(fmt.Sprintf("%v", oopsErr.Code()))
}

func FieldsOf(err error) map[string]any {
	if err == nil {
		return nil
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return nil
	}

	return oopsErr.Context()
}

func HasCode(err error, code Code) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == code
}

func IsNotFound(err error) bool {
	return reason(CodeOf(err)) == "not_found"
}

func IsInvalidInput(err error) bool {
	r := reason(CodeOf(err))
	return r == "invalid" || r == "invalid_input" || r == "invalid_value" || r == "invalid_format"
}

func IsTimeout(err error) bool {
	return reason(CodeOf(err)) == "timeout"
}

// IsTransient reports whether the error is a retryable upstream failure.
// Callers may retry the whole operation; the orchestration core never does.
func IsTransient(err error) bool {
	return reason(CodeOf(err)) == "transient_failure"
}

func IsCancelled(err error) bool {
	return reason(CodeOf(err)) == "cancelled"
}

func Join(errs ...error) error {
	return oops.Code(CodeInternalFailure).Wrap(stderrors.Join(errs...))
}

func flatten(fields []Attr) []any {
	pairs := make([]any, 0, len(fields)*2)
	for _, field := range fields {
		if field.Key == "" {
			continue
		}
		pairs = append(pairs, field.Key, field.Value)
	}
	return pairs
}

func reason(code Code) string {
	if code == "" {
		return ""
	}

	raw := string(code)
	idx := strings.LastIndex(raw, ".")
	if idx == -1 || idx == len(raw)-1 {
		return raw
	}
	return raw[idx+1:]
}
