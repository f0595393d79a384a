package types

import "errors"

var (
	ErrDonationNotFound = errors.New("donation not found")
	ErrInvalidStatus    = errors.New("invalid donation status")
)
