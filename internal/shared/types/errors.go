package types

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedFileType = errors.New("only CSV files are supported")
	ErrPipelineBusy        = errors.New("an upload is already in progress")
	ErrInvalidState        = errors.New("operation not allowed in the current state")
	ErrToggleInProgress    = errors.New("a subscription change is already in progress")
	ErrStaleResponse       = errors.New("response superseded by a newer request")
	ErrNotAuthenticated    = errors.New("user not authenticated")
	ErrFutureDate          = errors.New("date is in the future")
	ErrInvalidRange        = errors.New("end date cannot be before start date")
	ErrNegativeValue       = errors.New("value cannot be negative")
	ErrNoSubscriptionID    = errors.New("notification service returned no subscription id")
)

// ParseError reports malformed tabular input. Line is 1-based and counts the header.
type ParseError struct {
	Line   int
	Column string
	Err    error
}

func (e *ParseError) Error() string {
	switch {
	case e.Line > 0 && e.Column != "":
		return fmt.Sprintf("error parsing CSV: line %d, column %s: %v", e.Line, e.Column, e.Err)
	case e.Line > 0:
		return fmt.Sprintf("error parsing CSV: line %d: %v", e.Line, e.Err)
	default:
		return fmt.Sprintf("error parsing CSV: %v", e.Err)
	}
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ValidationError is a user-correctable input problem. It never changes state.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return e.Reason
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// TransportError wraps any failed call to the remote API or the staging service.
type TransportError struct {
	Stage      string // etapa do pipeline ou nome da busca ("history", "presign", ...)
	Op         string // operação HTTP, ex.: "GET /energy/history"
	StatusCode int
	Message    string // mensagem {"error": ...} devolvida pelo backend, se houver
	Err        error
}

func (e *TransportError) Error() string {
	detail := e.Message
	if detail == "" && e.Err != nil {
		detail = e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s failed (%s, status %d): %s", e.Stage, e.Op, e.StatusCode, detail)
	}
	return fmt.Sprintf("%s failed (%s): %s", e.Stage, e.Op, detail)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// WithStage devolve uma cópia do erro com a etapa substituída.
func (e *TransportError) WithStage(stage string) *TransportError {
	cp := *e
	cp.Stage = stage
	return &cp
}

// AsTransport converte err em *TransportError, envolvendo-o se necessário.
func AsTransport(err error, stage, op string) *TransportError {
	var te *TransportError
	if errors.As(err, &te) {
		return te.WithStage(stage)
	}
	return &TransportError{Stage: stage, Op: op, Err: err}
}
