package domain

import "errors"

var (
	ErrNotFound     = errors.New("not_found")
	ErrUnknownToken = errors.New("unknown_token")
)
