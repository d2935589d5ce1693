package storage

import "errors"

var (
	ErrNotFound          = errors.New("record not found")
	ErrAlreadyExists     = errors.New("record already exists")
	ErrReferenceNotFound = errors.New("reference not found")
	ErrTokenNotFound     = errors.New("verification token not found")
	ErrAlreadyVerified   = errors.New("reference already verified")
)
