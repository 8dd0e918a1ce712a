package alerts

import "errors"

var (
	ErrInvalidAlert      = errors.New("invalid alert")
	ErrAlertNotFound     = errors.New("alert not found")
	ErrPersistenceFailed = errors.New("persisting alerts failed")
)
