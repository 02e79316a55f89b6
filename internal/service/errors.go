package service

import "errors"

// Sentinel errors for service operations. Validation errors wrap the
// Invalid* sentinels with a detail message.
var (
	ErrNotFound        = errors.New("resource not found")
	ErrInvalidItem     = errors.New("invalid item")
	ErrInvalidQuery    = errors.New("invalid query")
	ErrInvalidReminder = errors.New("invalid reminder")
	ErrInvalidPreset   = errors.New("invalid preset")
	ErrDuplicateTag    = errors.New("rfid tag already assigned")
	ErrRateLimited     = errors.New("scan rate limit exceeded")
	ErrUnauthorized    = errors.New("unauthorized")
)
