package service

import "errors"

var (
	ErrValidation        = errors.New("validation")         // 400
	ErrNotFound          = errors.New("not found")          // 404
	ErrInsufficientStock = errors.New("insufficient stock") // 409
	ErrConflict          = errors.New("conflict")           // 409
	ErrUnavailable       = errors.New("unavailable")        // 503
)
