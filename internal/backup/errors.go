package backup

import (
	"errors"
	"fmt"
)

// IntegrityError reports an import write that violated a uniqueness or
// consistency rule. It is fatal to the whole import transaction: nothing
// from the document is committed.
type IntegrityError struct {
	Model string
	PK    int64
	Err   error
}

// Error implements the error interface.
func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity violation importing %s pk=%d: %v", e.Model, e.PK, e.Err)
}

func (e *IntegrityError) Unwrap() error {
	return e.Err
}

// Remediation returns the guidance shown to operators before the error is
// re-raised. These are the two most common causes of import failures.
func (e *IntegrityError) Remediation() string {
	return ">> Is this backup from the same schema version as the destination?\n" +
		">> Is the destination database clean (no pre-existing data)?"
}

// IsIntegrityError returns true if the error is an import integrity error.
// Uses errors.As to handle wrapped errors.
func IsIntegrityError(err error) bool {
	var ie *IntegrityError
	return errors.As(err, &ie)
}

// MalformedReferenceError reports a document reference that could not be
// resolved to any prior or pre-existing instance. Fatal to the transaction.
type MalformedReferenceError struct {
	Model  string
	PK     int64
	Field  string
	Target string
	Key    string
}

// Error implements the error interface.
func (e *MalformedReferenceError) Error() string {
	return fmt.Sprintf("cannot resolve reference %s.%s -> %s %s (pk=%d)",
		e.Model, e.Field, e.Target, e.Key, e.PK)
}

// IsMalformedReference returns true if the error is a reference resolution
// failure. Uses errors.As to handle wrapped errors.
func IsMalformedReference(err error) bool {
	var me *MalformedReferenceError
	return errors.As(err, &me)
}
