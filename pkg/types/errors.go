package types

import "errors"

// Sentinel error kinds, per the error taxonomy: deserialization failures,
// malformed addresses, and the other conditions components need to
// recognize with errors.Is rather than string matching.
var (
	ErrMalformedWire    = errors.New("malformed wire data")
	ErrMalformedAddress = errors.New("malformed address")
	ErrSignatureInvalid = errors.New("signature invalid")
	ErrUTXONotFound     = errors.New("utxo not found")
	ErrDoubleSpend      = errors.New("double spend")
	ErrInsufficientFunds = errors.New("insufficient stake")
	ErrProtocolViolation = errors.New("protocol violation")
	ErrTransportFailure  = errors.New("transport failure")
	ErrPeerBanned        = errors.New("peer banned")
)
