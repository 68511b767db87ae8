package service

import "errors"

// ErrInvalidInput wraps input the service rejects before touching storage.
var ErrInvalidInput = errors.New("invalid input")
