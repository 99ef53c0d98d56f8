package core

import "errors"

var (
	ErrUserDoesNotExist = errors.New("user does not exist")
	ErrUnauthenticated  = errors.New("authentication required")
	ErrForbidden        = errors.New("user is not authorized")
	ErrConflict         = errors.New("resource already exists")
	ErrNotFound         = errors.New("resource not found")
)
