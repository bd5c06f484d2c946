package vault

import "errors"

var (
	ErrNotFound    = errors.New("vault: not found")
	ErrInvalidCID  = errors.New("vault: invalid cid")
	ErrCIDMismatch = errors.New("vault: cid mismatch")
	ErrImmutable   = errors.New("vault: immutable object mismatch")
)

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
