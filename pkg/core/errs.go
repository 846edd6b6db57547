package core

import "errors"

var (
	ErrUnorderedBars = errors.New("bars are not strictly increasing in time")
	ErrPairNotFound  = errors.New("pair not found")
)
