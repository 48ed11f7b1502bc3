package models

import (
	"errors"
	"fmt"
)

var (
	ErrMissingHeader   = errors.New("missing header row")
	ErrInvalidEncoding = errors.New("file is not valid UTF-8")
	ErrDuplicateColumn = errors.New("duplicate column in header")
)

// DataSourceError means an input file could not be used at all. It aborts the run.
type DataSourceError struct {
	Source string
	Path   string
	Err    error
}

func (e *DataSourceError) Error() string {
	return fmt.Sprintf("data source %s (%s): %v", e.Source, e.Path, e.Err)
}

func (e *DataSourceError) Unwrap() error {
	return e.Err
}

// RowValidationError describes a single row the cleaner rejected. It is
// counted and logged, never returned from a run.
type RowValidationError struct {
	Source string
	Row    int
	Column string
	Reason string
	Err    error
}

func (e *RowValidationError) Error() string {
	msg := fmt.Sprintf("%s row %d: %s", e.Source, e.Row, e.Reason)
	if e.Column != "" {
		msg = fmt.Sprintf("%s row %d column %q: %s", e.Source, e.Row, e.Column, e.Reason)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RowValidationError) Unwrap() error {
	return e.Err
}

// JoinConfigurationError rejects an unusable join or feature parameter before
// any data is read.
type JoinConfigurationError struct {
	Param string
	Value any
	Rule  string
}

func (e *JoinConfigurationError) Error() string {
	return fmt.Sprintf("invalid join configuration %s=%v: %s", e.Param, e.Value, e.Rule)
}

// StageError names the pipeline stage a failure happened in.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
