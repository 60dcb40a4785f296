package errors

import "errors"

var (
	ErrInvalidListing           = errors.New("invalid listing request")
	ErrInvalidPrice             = errors.New("listing price must be positive")
	ErrInvalidFee               = errors.New("attached amount does not match listing fee")
	ErrInvalidRoyalty           = errors.New("royalty rate is outside the basis-point range")
	ErrUnauthorized             = errors.New("caller is not the listing seller")
	ErrEditWindowExpired        = errors.New("listing edit window has expired")
	ErrItemNotFound             = errors.New("market item not found")
	ErrAlreadySold              = errors.New("market item is already sold")
	ErrPaymentMismatch          = errors.New("attached amount does not match listing price")
	ErrCollectionMismatch       = errors.New("declared collection does not match the listed asset")
	ErrReentrantCall            = errors.New("reentrant call rejected")
	ErrInvalidListFilter        = errors.New("invalid list filter")
	ErrRepositoryInvariantBroke = errors.New("repository invariant violated")
)
