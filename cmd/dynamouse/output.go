package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
)

// Exit codes for CLI commands.
const (
	exitSuccess      = 0
	exitFailure      = 1
	exitCommandError = 2
)

// exitError carries a process exit code with its cause.
type exitError struct {
	Code    int
	Message string
	Err     error
}

func (e *exitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *exitError) Unwrap() error {
	return e.Err
}

// commandError marks bad arguments or configuration.
func commandError(message string, err error) error {
	return &exitError{Code: exitCommandError, Message: message, Err: err}
}

// failure marks a command that ran but could not complete.
func failure(message string, err error) error {
	return &exitError{Code: exitFailure, Message: message, Err: err}
}

// exitCode extracts the exit code, defaulting to exitFailure.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return exitFailure
}

// printer renders command results as text or JSON.
type printer struct {
	format string
	w      io.Writer
}

// emit writes data as indented JSON, or calls text for the text format.
func (p printer) emit(data any, text func(tw *tabwriter.Writer)) error {
	if p.format == "json" {
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	}
	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	text(tw)
	return tw.Flush()
}
