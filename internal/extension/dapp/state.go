package dapp

import (
	"github.com/ethereum/go-ethereum/common"
)

// Provider is a network connection for the dapp's current chain.
type Provider interface {
	ChainID() uint64
	RPCURL() string
	Close()
}

// ProviderFactory opens a Provider for chainID. rpcURL may be empty when the
// background did not name one.
type ProviderFactory func(chainID uint64, rpcURL string) (Provider, error)

// State is what the relay knows about the dapp's connection. The zero value
// is a disconnected dapp with no cached chain.
type State struct {
	Addresses []common.Address
	ChainID   uint64
	Provider  Provider
}

// Connected reports whether any account is exposed to the dapp.
func (s State) Connected() bool {
	return len(s.Addresses) > 0
}

// FullyConnected also requires a cached chain and an open provider.
func (s State) FullyConnected() bool {
	return s.Connected() && s.ChainID != 0 && s.Provider != nil
}

// HasAddress reports whether a is one of the connected accounts. Addresses
// are compared as bytes so hex case never matters.
func (s State) HasAddress(a common.Address) bool {
	for _, c := range s.Addresses {
		if c == a {
			return true
		}
	}
	return false
}

func (s State) clone() State {
	s.Addresses = append([]common.Address(nil), s.Addresses...)
	return s
}

func sameAddresses(a, b []common.Address) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
