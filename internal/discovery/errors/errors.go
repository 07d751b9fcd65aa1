package errors

// Package errors provides sentinel errors for contract discovery operations.
// These enable consistent classification of directory-level failures, which abort
// the subtree, as opposed to per-file failures, which are logged and skipped.

import "errors"

var (
	// ErrRootReadFailed indicates the contracts root exists but could not be listed.
	ErrRootReadFailed = errors.New("contracts root read failed")

	// ErrDirReadFailed indicates a domain or service directory could not be listed.
	ErrDirReadFailed = errors.New("contracts directory read failed")

	// ErrFileReadFailed indicates reading a contract file failed.
	ErrFileReadFailed = errors.New("contract file read failed")

	// ErrInvalidExcludePattern indicates an exclude glob does not compile.
	ErrInvalidExcludePattern = errors.New("invalid exclude pattern")
)
