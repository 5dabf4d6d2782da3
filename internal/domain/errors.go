package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidOperation   = errors.New("invalid operation")
	ErrConcurrencyTimeout = errors.New("concurrency timeout")
	ErrDependencyFailure  = errors.New("dependency failure")
)

// Rule violations. All of them match ErrInvalidOperation with errors.Is.
var (
	ErrSelfBid           = fmt.Errorf("%w: self-bid", ErrInvalidOperation)
	ErrNotBiddable       = fmt.Errorf("%w: not biddable", ErrInvalidOperation)
	ErrInsufficientPrice = fmt.Errorf("%w: insufficient price", ErrInvalidOperation)
	ErrInvalidCeiling    = fmt.Errorf("%w: invalid ceiling price", ErrInvalidOperation)
	ErrProxyOrderExists  = fmt.Errorf("%w: proxy order exists", ErrInvalidOperation)
	ErrNotProxyOwner     = fmt.Errorf("%w: not the proxy order owner", ErrInvalidOperation)
)
