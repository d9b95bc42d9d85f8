package dapp

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/fleshka4/dex-bridge/internal/apperrors"
)

// guard rejects a request before anything is sent to the background.
type guard func(s State, req Request) error

// Methods missing from the table are not gated.
var guards = map[Method][]guard{
	MethodSendTransaction: {connected, noSelfCallWithData},
	MethodGetCapabilities: {connected, ownsAddress},
	MethodSwitchChain:     {connected},
	MethodPersonalSign:    {connected, ownsAddress},
	MethodSignTypedDataV4: {connected, ownsAddress},
	MethodSendCalls:       {connected, noSelfCallWithData},
	MethodGetCallsStatus:  {connected},
}

// accountRequest names the account that must sign or be inspected.
type accountRequest interface {
	account() common.Address
}

type call struct {
	from *common.Address
	to   *common.Address
	data []byte
}

type callRequest interface {
	calls() []call
}

func connected(s State, _ Request) error {
	if !s.Connected() {
		return errors.Wrap(apperrors.ErrUnauthorized, "no connected account")
	}
	return nil
}

func ownsAddress(s State, req Request) error {
	r, ok := req.(accountRequest)
	if !ok {
		return nil
	}
	if !s.HasAddress(r.account()) {
		return errors.Wrapf(apperrors.ErrUnauthorized, "account %s is not connected", r.account().Hex())
	}
	return nil
}

// noSelfCallWithData rejects calls that send calldata from an account to
// itself. Every offending call of a batch is reported.
func noSelfCallWithData(_ State, req Request) error {
	r, ok := req.(callRequest)
	if !ok {
		return nil
	}
	var err error
	for i, c := range r.calls() {
		if c.from == nil || c.to == nil || len(c.data) == 0 {
			continue
		}
		if *c.from == *c.to {
			err = multierr.Append(err, errors.Wrapf(apperrors.ErrSelfCallWithData, "call %d to %s", i, c.to.Hex()))
		}
	}
	return err
}

func checkGuards(s State, req Request) error {
	for _, g := range guards[req.Method()] {
		if err := g(s, req); err != nil {
			return err
		}
	}
	return nil
}
