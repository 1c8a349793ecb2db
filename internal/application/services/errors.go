package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrValidation       = errors.New("validation failed")
	ErrWrongCredential  = errors.New("wrong credential")
	ErrUserDoesNotExist = fmt.Errorf("%w: user does not exist", ErrWrongCredential)

	ErrAnonymousOwner  = errors.New("anonymous users cannot own tokens")
	ErrDuplicateName   = errors.New("token name already in use")
	ErrTokenNotFound   = errors.New("token not found")
	ErrUnknownDuration = errors.New("unknown token duration")

	ErrIdentifierSpaceExhausted = errors.New("identifier space exhausted")

	ErrRegistrationClosed = errors.New("registration is disabled")
	ErrAnonymousUpload    = errors.New("anonymous uploads are disabled")
	ErrFileTooLarge       = errors.New("file too large")
	ErrResourceNotFound   = errors.New("resource not found")
	ErrResourceExists     = errors.New("resource already exists")
)

// ValidationError lists the offending fields. It matches ErrValidation with errors.Is.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// validation drops empty messages and returns nil when nothing is left.
func validation(fields map[string]string) error {
	for k, v := range fields {
		if v == "" {
			delete(fields, k)
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}
