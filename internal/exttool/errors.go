package exttool

import "errors"

var (
	// ErrToolNotFound indicates the external command is not on PATH.
	ErrToolNotFound = errors.New("external tool not found")

	// ErrToolFailed indicates the external command ran and exited unsuccessfully.
	ErrToolFailed = errors.New("external tool failed")
)
