package service

import "errors"

var (
	// ErrAuthentication is returned when login fails: unknown phone or
	// rejected credentials.
	ErrAuthentication = errors.New("user not found or incorrect password")

	// ErrSessionNotFound is returned when an access token is unknown or absent.
	ErrSessionNotFound = errors.New("session not found")

	// ErrAddressInvalid is returned when an order's addresses are rejected
	// by the validation gate.
	ErrAddressInvalid = errors.New("wrong input data addresses")

	// ErrGeoResolution is returned when the geolocation provider cannot
	// resolve an address.
	ErrGeoResolution = errors.New("geolocation provider could not resolve address")

	// ErrOrderNotFound is returned when an order does not exist, or when a
	// user asking for their last order has none.
	ErrOrderNotFound = errors.New("order not found")

	// ErrInvalidStatus is returned when an order is not in the status the
	// transition requires.
	ErrInvalidStatus = errors.New("order has wrong status for this transition")

	// ErrDriverBusy is returned when a driver with an IN_PROGRESS order
	// tries to take another one.
	ErrDriverBusy = errors.New("driver already has an order in progress")

	// ErrDriverOrderMismatch is returned when the order being closed does
	// not appear in the caller's own order list.
	ErrDriverOrderMismatch = errors.New("order not found in driver orders list")

	// ErrRegistration is returned when registration or a profile update is
	// rejected, typically because the phone is already in use.
	ErrRegistration = errors.New("phone is already in use by another user")
)
