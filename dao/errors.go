package dao

import "errors"

var (
	ErrNotFound      = errors.New("link not found")
	ErrDuplicateCode = errors.New("short code already in use")
	ErrEmptyURL      = errors.New("target url is required")
	ErrInvalidCode   = errors.New("short code must be 6 to 8 letters or digits")
)
