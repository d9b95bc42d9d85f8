package chain

//go:generate mockgen -source=client.go -destination=mock/client.go -package=mock

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/fleshka4/dex-bridge/internal/apperrors"
)

// Caller represents the node RPC calls the client needs.
type Caller interface {
	ChainID(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
	Close()
}

// Status is what a node reports about itself.
type Status struct {
	ChainID       uint64 `json:"chainId"`
	RemoteChainID uint64 `json:"remoteChainId"`
	BlockNumber   uint64 `json:"blockNumber"`
}

// Client is a provider bound to one chain and RPC endpoint.
type Client struct {
	chainID uint64
	rpcURL  string
	caller  Caller

	callTimeout time.Duration
}

// Dial creates a Client for chainID backed by an Ethereum RPC connection.
func Dial(chainID uint64, rpcURL string, callTimeout time.Duration) (*Client, error) {
	if rpcURL == "" {
		return nil, errors.Wrapf(apperrors.ErrInvalidArgument, "no rpc url for chain %d", chainID)
	}
	caller, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, errors.Wrap(err, "ethclient.Dial")
	}

	return newClientWithCaller(chainID, rpcURL, caller, callTimeout), nil
}

func newClientWithCaller(chainID uint64, rpcURL string, caller Caller, callTimeout time.Duration) *Client {
	return &Client{
		chainID: chainID,
		rpcURL:  rpcURL,
		caller:  caller,

		callTimeout: callTimeout,
	}
}

// ChainID returns the chain the client was opened for.
func (c *Client) ChainID() uint64 { return c.chainID }

// RPCURL returns the endpoint the client talks to.
func (c *Client) RPCURL() string { return c.rpcURL }

// Close releases the RPC connection.
func (c *Client) Close() { c.caller.Close() }

// Status asks the node for its chain id and head block. Both calls run
// concurrently and every failure is reported.
func (c *Client) Status(ctx context.Context) (Status, error) {
	const numCalls = 2

	type callResult struct {
		name  string
		value uint64
		err   error
	}

	var wg sync.WaitGroup
	ch := make(chan callResult, numCalls)

	run := func(name string, fn func(ctx context.Context) (uint64, error)) {
		defer wg.Done()

		ctxCall, cancel := context.WithTimeout(ctx, c.callTimeout)
		defer cancel()

		v, err := fn(ctxCall)
		if err != nil {
			ch <- callResult{name: name, err: errors.Wrapf(err, "failed to call %s", name)}
			return
		}
		ch <- callResult{name: name, value: v}
	}

	wg.Add(numCalls)
	go run("eth_chainId", func(ctx context.Context) (uint64, error) {
		id, err := c.caller.ChainID(ctx)
		if err != nil {
			return 0, err
		}
		if !id.IsUint64() {
			return 0, errors.Errorf("chain id %s overflows uint64", id)
		}
		return id.Uint64(), nil
	})
	go run("eth_blockNumber", c.caller.BlockNumber)

	go func() {
		wg.Wait()
		close(ch)
	}()

	var (
		st          = Status{ChainID: c.chainID}
		combinedErr error
	)
	for result := range ch {
		if result.err != nil {
			combinedErr = multierr.Append(combinedErr, result.err)
			continue
		}

		switch result.name {
		case "eth_chainId":
			st.RemoteChainID = result.value
		case "eth_blockNumber":
			st.BlockNumber = result.value
		}
	}

	if combinedErr != nil {
		return Status{}, errors.Wrap(combinedErr, "failed to get node status")
	}
	if st.RemoteChainID != c.chainID {
		return st, errors.Wrapf(apperrors.ErrChainMismatch, "configured %d, node reports %d", c.chainID, st.RemoteChainID)
	}
	return st, nil
}

// Factory opens clients with a shared call timeout.
type Factory struct {
	CallTimeout time.Duration
}

// Open dials rpcURL for chainID.
func (f Factory) Open(chainID uint64, rpcURL string) (*Client, error) {
	return Dial(chainID, rpcURL, f.CallTimeout)
}
