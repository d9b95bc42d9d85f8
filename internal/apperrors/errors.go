package apperrors

import "github.com/pkg/errors"

var (
	// ErrInvalidArgument is returned when the request parameters are invalid.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInsufficientLiquidity is returned when the pool does not have enough
	// reserves to satisfy the requested swap.
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")

	// ErrUnauthorized is returned when a dapp calls a gated method without a
	// connected account, or names an account that is not connected.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrSelfCallWithData is returned for a call whose sender and recipient are
	// the same address while carrying calldata.
	ErrSelfCallWithData = errors.New("self call with data")

	// ErrUnsupportedMethod is returned for provider methods the relay does not handle.
	ErrUnsupportedMethod = errors.New("unsupported method")

	// ErrUnknownPoolType is returned when a quote edge has an unrecognized type.
	ErrUnknownPoolType = errors.New("unknown pool type")

	// ErrMalformedRoute is returned when quote edges do not form a connected path.
	ErrMalformedRoute = errors.New("malformed route")

	// ErrCurrencyMismatch is returned when amounts or prices of different currencies are combined.
	ErrCurrencyMismatch = errors.New("currency mismatch")

	// ErrChainMismatch is returned when a node serves a different chain than configured.
	ErrChainMismatch = errors.New("chain mismatch")

	// ErrBackgroundUnavailable is returned when no background process is attached.
	ErrBackgroundUnavailable = errors.New("background unavailable")
)
