// Package pool reconstructs liquidity pools from the state embedded in quote responses.
package pool

import (
	"github.com/pkg/errors"

	"github.com/fleshka4/dex-bridge/internal/apperrors"
	"github.com/fleshka4/dex-bridge/internal/currency"
)

// Protocol identifies the AMM design of a pool.
type Protocol string

const (
	ProtocolV2    Protocol = "V2"
	ProtocolV3    Protocol = "V3"
	ProtocolMixed Protocol = "MIXED"
)

// Pool is the protocol-independent view of a two-token pool.
type Pool interface {
	Protocol() Protocol
	ChainID() uint64
	Token0() *currency.Token
	Token1() *currency.Token
	Involves(t *currency.Token) bool
	// PriceOf returns the price of t denominated in the other token.
	PriceOf(t *currency.Token) (currency.Price, error)
}

func sortTokens(a, b *currency.Token) (*currency.Token, *currency.Token, error) {
	if a.ChainID() != b.ChainID() {
		return nil, nil, errors.Wrapf(apperrors.ErrInvalidArgument, "tokens on chains %d and %d", a.ChainID(), b.ChainID())
	}
	if a.Equals(b) {
		return nil, nil, errors.Wrapf(apperrors.ErrInvalidArgument, "identical tokens %s", a.Address().Hex())
	}
	if b.SortsBefore(a) {
		return b, a, nil
	}
	return a, b, nil
}

func involves(p Pool, t *currency.Token) bool {
	return p.Token0().Equals(t) || p.Token1().Equals(t)
}
