package protocol

import "errors"

var (
	ErrEmptyPath     = errors.New("protocol: empty request path")
	ErrPathTooLong   = errors.New("protocol: request path too long")
	ErrForbiddenPath = errors.New("protocol: forbidden path sequence")
)
