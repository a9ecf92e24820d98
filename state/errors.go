package state

import "errors"

var (
	ErrNodeNotFound = errors.New("node does not exist")
	ErrInvalidDelay = errors.New("invalid link delay")
)
