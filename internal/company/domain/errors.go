package domain

import "errors"

var (
	ErrNotFound          = errors.New("not_found")
	ErrLeaveTypeInUse    = errors.New("leave_type_in_use")
	ErrInvalidDateFormat = errors.New("invalid_date_format")
)
