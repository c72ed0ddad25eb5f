// Package shared holds the value objects, errors and events that the hifz
// domain, the stores and the handlers all speak.
package shared

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error kinds. Match them with errors.Is.
var (
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrValidation    = errors.New("validation error")
	ErrInvalidID     = errors.New("invalid ID")
	ErrInvalidInput  = errors.New("invalid input")
	ErrInvalidState  = errors.New("invalid state")
)

// DomainError names the failing operation and carries a kind for errors.Is.
// Err, when set, is the lower-level cause.
type DomainError struct {
	Domain  string
	Op      string
	Kind    error
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	msg := e.Domain + "." + e.Op + ": " + e.Message
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DomainError) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{Domain: domain, Op: op, Kind: kind, Message: message}
}

// WrapError is NewDomainError with a cause.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{Domain: domain, Op: op, Kind: kind, Message: message, Err: err}
}

// ValidationError rejects one input field.
func ValidationError(op, field, reason string) *DomainError {
	return NewDomainError("hifz", op, ErrValidation, field+": "+reason)
}

var (
	ErrLearnerNotFound        = NewDomainError("hifz", "FindStatus", ErrNotFound, "learner status not found")
	ErrLearnerAlreadyEnrolled = NewDomainError("hifz", "Enroll", ErrAlreadyExists, "learner already enrolled")
	ErrRecordNotFound         = NewDomainError("hifz", "FindRecord", ErrNotFound, "daily record not found")
	ErrInvalidLearnerID       = NewDomainError("hifz", "Validate", ErrInvalidID, "invalid learner ID")

	// ErrDuplicateRecord: the learner already has a record for that calendar day.
	ErrDuplicateRecord = NewDomainError("hifz", "CreateRecord", ErrAlreadyExists, "daily record already exists for this date")
)

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

func IsDuplicateRecord(err error) bool { return errors.Is(err, ErrDuplicateRecord) }

// IsValidation covers every kind that means "bad input from the caller".
func IsValidation(err error) bool {
	for _, kind := range []error{ErrValidation, ErrInvalidID, ErrInvalidInput} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}

// ═══════════════════════════════════════════════════════════════════════════
// Data integrity warnings
// ═══════════════════════════════════════════════════════════════════════════

// WarningCode classifies a DataIntegrityWarning.
type WarningCode string

const (
	// WarningOverlap: a unit is both already memorized and completed during training.
	WarningOverlap WarningCode = "overlap"

	// WarningMalformedUnit: a stored unit number lies outside 1..30.
	WarningMalformedUnit WarningCode = "malformed_unit"
)

// DataIntegrityWarning is reported alongside results, never returned as an error.
// Computation continues with the offending data excluded.
type DataIntegrityWarning struct {
	Code    WarningCode `json:"code" yaml:"code"`
	Message string      `json:"message" yaml:"message"`
	Units   []int       `json:"units" yaml:"units"`
}

// String renders the warning for logs.
func (w DataIntegrityWarning) String() string {
	units := append([]int(nil), w.Units...)
	sort.Ints(units)
	parts := make([]string, len(units))
	for i, u := range units {
		parts[i] = fmt.Sprint(u)
	}
	return fmt.Sprintf("%s: %s [%s]", w.Code, w.Message, strings.Join(parts, ", "))
}
