package domain

import "errors"

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("code already exists")
	ErrNotFound     = errors.New("link not found")
)
