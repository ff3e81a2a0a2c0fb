package domain

import "errors"

var (
	ErrPeerNotFound      = errors.New("peer not found")
	ErrMissingPeerID     = errors.New("peer id is required")
	ErrUnknownSignalType = errors.New("unknown signal type")
	ErrEmptyPayload      = errors.New("signal payload is empty")
)
