package dapp

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/multierr"

	"github.com/fleshka4/dex-bridge/internal/apperrors"
	"github.com/fleshka4/dex-bridge/internal/extension/messaging"
	"github.com/fleshka4/dex-bridge/internal/extension/messaging/mock"
	"github.com/fleshka4/dex-bridge/internal/extension/pending"
)

const origin = "https://app.example"

type fakeProvider struct {
	chainID uint64
	url     string
	closed  bool
}

func (p *fakeProvider) ChainID() uint64 { return p.chainID }
func (p *fakeProvider) RPCURL() string  { return p.url }
func (p *fakeProvider) Close()          { p.closed = true }

type env struct {
	h       *Handler
	src     *mock.MockSource
	bg      *mock.MockBackground
	pending *pending.Map
	posted  []any
	opened  []*fakeProvider
}

func newEnv(t *testing.T) *env {
	t.Helper()

	ctrl := gomock.NewController(t)
	e := &env{
		src:     mock.NewMockSource(ctrl),
		bg:      mock.NewMockBackground(ctrl),
		pending: pending.New(64, time.Minute),
	}
	e.src.EXPECT().ID().Return("page-1").AnyTimes()
	e.src.EXPECT().Origin().Return(origin).AnyTimes()
	e.src.EXPECT().PostMessage(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, msg any) error {
			e.posted = append(e.posted, msg)
			return nil
		}).AnyTimes()

	h, err := NewHandler(Config{
		Background: e.bg,
		Pending:    e.pending,
		NewProvider: func(chainID uint64, rpcURL string) (Provider, error) {
			p := &fakeProvider{chainID: chainID, url: rpcURL}
			e.opened = append(e.opened, p)
			return p, nil
		},
		DefaultChainID: 1,
		RPCURLs:        map[uint64]string{1: "http://mainnet.local", 10: "http://optimism.local"},
	})
	require.NoError(t, err)
	e.h = h
	return e
}

// connect puts the handler in a fully connected state.
func (e *env) connect(chainID uint64, addrs ...common.Address) *fakeProvider {
	p := &fakeProvider{chainID: chainID}
	e.h.state = State{Addresses: addrs, ChainID: chainID, Provider: p}
	return p
}

func (e *env) lastError(t *testing.T) *messaging.ProviderError {
	t.Helper()

	require.NotEmpty(t, e.posted)
	resp, ok := e.posted[len(e.posted)-1].(messaging.PageErrorResponse)
	require.True(t, ok, "last message is %T", e.posted[len(e.posted)-1])
	return resp.Error
}

func (e *env) lastResult(t *testing.T) messaging.PageResponse {
	t.Helper()

	require.NotEmpty(t, e.posted)
	resp, ok := e.posted[len(e.posted)-1].(messaging.PageResponse)
	require.True(t, ok, "last message is %T", e.posted[len(e.posted)-1])
	return resp
}

func TestNewHandlerValidates(t *testing.T) {
	t.Parallel()

	_, err := NewHandler(Config{})
	require.True(t, errors.Is(err, apperrors.ErrInvalidArgument))
}

var gatedRequests = map[Method]string{
	MethodSendTransaction: `{"method":"eth_sendTransaction","requestId":"r","transaction":{"from":"0x00000000000000000000000000000000000a11ce","to":"0x0000000000000000000000000000000000000b0b"}}`,
	MethodGetCapabilities: `{"method":"wallet_getCapabilities","requestId":"r","address":"0x00000000000000000000000000000000000a11ce"}`,
	MethodSwitchChain:     `{"method":"wallet_switchEthereumChain","requestId":"r","chainId":"0xa"}`,
	MethodPersonalSign:    `{"method":"personal_sign","requestId":"r","address":"0x00000000000000000000000000000000000a11ce","messageHex":"0x68656c6c6f"}`,
	MethodSignTypedDataV4: `{"method":"eth_signTypedData_v4","requestId":"r","address":"0x00000000000000000000000000000000000a11ce","typedData":{"primaryType":"Mail"}}`,
	MethodSendCalls:       `{"method":"wallet_sendCalls","requestId":"r","sendCallsParams":{"version":"2.0.0","from":"0x00000000000000000000000000000000000a11ce","chainId":"0x1","calls":[{"to":"0x0000000000000000000000000000000000000b0b"}]}}`,
	MethodGetCallsStatus:  `{"method":"wallet_getCallsStatus","requestId":"r","batchId":"0xabc"}`,
}

func TestGatedMethodsRequireConnection(t *testing.T) {
	t.Parallel()

	require.Len(t, gatedRequests, len(guards))

	for method, raw := range gatedRequests {
		t.Run(string(method), func(t *testing.T) {
			t.Parallel()

			e := newEnv(t)
			// No SendMessage expectation: any call to the background fails the test.
			require.NoError(t, e.h.HandleRequest(context.Background(), []byte(raw), e.src))
			require.Equal(t, messaging.CodeUnauthorized, e.lastError(t).Code)
			require.Zero(t, e.pending.Len())
		})
	}
}

func TestGatedMethodsForwardWhenConnected(t *testing.T) {
	t.Parallel()

	want := map[Method]messaging.DappRequestType{
		MethodSendTransaction: messaging.RequestSendTransaction,
		MethodGetCapabilities: messaging.RequestGetCapabilities,
		MethodSwitchChain:     messaging.RequestChangeChain,
		MethodPersonalSign:    messaging.RequestSignMessage,
		MethodSignTypedDataV4: messaging.RequestSignTypedData,
		MethodSendCalls:       messaging.RequestSendCalls,
		MethodGetCallsStatus:  messaging.RequestGetCallsStatus,
	}

	for method, raw := range gatedRequests {
		t.Run(string(method), func(t *testing.T) {
			t.Parallel()

			e := newEnv(t)
			e.connect(1, alice)
			e.bg.EXPECT().SendMessage(gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, req messaging.BackgroundRequest) error {
					assert.Equal(t, want[method], req.Type)
					assert.Equal(t, "r", req.RequestID)
					assert.Equal(t, origin, req.Origin)
					// Registered before the background could answer.
					assert.Equal(t, 1, e.pending.Len())
					return nil
				})

			require.NoError(t, e.h.HandleRequest(context.Background(), []byte(raw), e.src))
			require.Empty(t, e.posted)
		})
	}
}

func TestOwnsAddress(t *testing.T) {
	t.Parallel()

	checksummed := common.HexToAddress("0x52908400098527886E0F7030069857D2E4169EE7")
	raw := func(addr string) []byte {
		return []byte(fmt.Sprintf(`{"method":"personal_sign","requestId":"r","address":%q,"messageHex":"0x00"}`, addr))
	}

	t.Run("case insensitive match", func(t *testing.T) {
		t.Parallel()

		e := newEnv(t)
		e.connect(1, checksummed)
		e.bg.EXPECT().SendMessage(gomock.Any(), gomock.Any()).Return(nil)

		lower := strings.ToLower(checksummed.Hex())
		require.NoError(t, e.h.HandleRequest(context.Background(), raw(lower), e.src))
		_, ok := e.pending.Resolve("r", messaging.ResponseSignMessage)
		require.True(t, ok)
	})

	t.Run("other account", func(t *testing.T) {
		t.Parallel()

		e := newEnv(t)
		e.connect(1, checksummed)

		require.NoError(t, e.h.HandleRequest(context.Background(), raw(bob.Hex()), e.src))
		require.Equal(t, messaging.CodeUnauthorized, e.lastError(t).Code)
	})
}

func TestSelfCallWithData(t *testing.T) {
	t.Parallel()

	t.Run("transaction", func(t *testing.T) {
		t.Parallel()

		e := newEnv(t)
		e.connect(1, alice)
		raw := `{"method":"eth_sendTransaction","requestId":"r","transaction":{"from":"0x00000000000000000000000000000000000a11ce","to":"0x00000000000000000000000000000000000A11CE","data":"0x12"}}`

		require.NoError(t, e.h.HandleRequest(context.Background(), []byte(raw), e.src))
		require.Equal(t, messaging.CodeInvalidParams, e.lastError(t).Code)
	})

	t.Run("self transfer without data", func(t *testing.T) {
		t.Parallel()

		e := newEnv(t)
		e.connect(1, alice)
		e.bg.EXPECT().SendMessage(gomock.Any(), gomock.Any()).Return(nil)
		raw := `{"method":"eth_sendTransaction","requestId":"r","transaction":{"from":"0x00000000000000000000000000000000000a11ce","to":"0x00000000000000000000000000000000000a11ce","value":"0x1","data":"0x"}}`

		require.NoError(t, e.h.HandleRequest(context.Background(), []byte(raw), e.src))
		require.Empty(t, e.posted)
	})

	t.Run("one bad call voids the batch", func(t *testing.T) {
		t.Parallel()

		e := newEnv(t)
		e.connect(1, alice)
		raw := `{"method":"wallet_sendCalls","requestId":"r","sendCallsParams":{"version":"2.0.0","from":"0x00000000000000000000000000000000000a11ce","chainId":"0x1","calls":[` +
			`{"to":"0x0000000000000000000000000000000000000b0b","data":"0x12"},` +
			`{"to":"0x0000000000000000000000000000000000000b0b","value":"0x1"},` +
			`{"to":"0x00000000000000000000000000000000000a11ce","data":"0x34"}]}}`

		require.NoError(t, e.h.HandleRequest(context.Background(), []byte(raw), e.src))
		perr := e.lastError(t)
		require.Equal(t, messaging.CodeInvalidParams, perr.Code)
		require.Contains(t, perr.Message, "call 2")
		require.Zero(t, e.pending.Len())
	})
}

func TestNoSelfCallWithDataReportsEveryCall(t *testing.T) {
	t.Parallel()

	req := &SendCallsRequest{SendCallsParams: SendCallsParams{
		From: &alice,
		Calls: []Call{
			{To: &alice, Data: []byte{1}},
			{To: &bob, Data: []byte{1}},
			{To: &alice, Data: []byte{2}},
		},
	}}

	err := noSelfCallWithData(State{}, req)
	require.Len(t, multierr.Errors(err), 2)
	require.True(t, errors.Is(err, apperrors.ErrSelfCallWithData))
}

func TestSynchronousReplies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("chain id defaults", func(t *testing.T) {
		t.Parallel()

		e := newEnv(t)
		require.NoError(t, e.h.HandleRequest(ctx, []byte(`{"method":"eth_chainId","requestId":"r"}`), e.src))
		require.Equal(t, messaging.PageResponse{RequestID: "r", Result: "0x1"}, e.lastResult(t))
	})

	t.Run("chain id cached", func(t *testing.T) {
		t.Parallel()

		e := newEnv(t)
		e.connect(10, alice)
		require.NoError(t, e.h.HandleRequest(ctx, []byte(`{"method":"eth_chainId","requestId":"r"}`), e.src))
		require.Equal(t, "0xa", e.lastResult(t).Result)
	})

	t.Run("accounts disconnected", func(t *testing.T) {
		t.Parallel()

		e := newEnv(t)
		require.NoError(t, e.h.HandleRequest(ctx, []byte(`{"method":"eth_accounts","requestId":"r"}`), e.src))
		require.Equal(t, messaging.CodeUnauthorized, e.lastError(t).Code)
	})

	t.Run("accounts connected", func(t *testing.T) {
		t.Parallel()

		e := newEnv(t)
		e.connect(1, alice, bob)
		require.NoError(t, e.h.HandleRequest(ctx, []byte(`{"method":"eth_accounts","requestId":"r"}`), e.src))
		require.Equal(t, []common.Address{alice, bob}, e.lastResult(t).Result)
	})

	t.Run("request accounts fully connected", func(t *testing.T) {
		t.Parallel()

		e := newEnv(t)
		e.connect(1, alice)
		require.NoError(t, e.h.HandleRequest(ctx, []byte(`{"method":"eth_requestAccounts","requestId":"r"}`), e.src))
		require.Equal(t, []common.Address{alice}, e.lastResult(t).Result)
	})

	t.Run("request accounts without provider asks background", func(t *testing.T) {
		t.Parallel()

		e := newEnv(t)
		e.h.state = State{Addresses: []common.Address{alice}, ChainID: 1}
		e.bg.EXPECT().SendMessage(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req messaging.BackgroundRequest) error {
				assert.Equal(t, messaging.RequestGetAccount, req.Type)
				return nil
			})

		require.NoError(t, e.h.HandleRequest(ctx, []byte(`{"method":"eth_requestAccounts","requestId":"r"}`), e.src))
		require.Empty(t, e.posted)
		_, ok := e.pending.Resolve("r", messaging.ResponseAccount)
		require.True(t, ok)
	})

	t.Run("permissions", func(t *testing.T) {
		t.Parallel()

		e := newEnv(t)
		require.NoError(t, e.h.HandleRequest(ctx, []byte(`{"method":"wallet_getPermissions","requestId":"r"}`), e.src))
		require.Equal(t, []Permission{}, e.lastResult(t).Result)

		e.connect(1, alice)
		require.NoError(t, e.h.HandleRequest(ctx, []byte(`{"method":"wallet_getPermissions","requestId":"s"}`), e.src))
		perms := e.lastResult(t).Result.([]Permission)
		require.Len(t, perms, 1)
		require.Equal(t, origin, perms[0].Invoker)
		require.Equal(t, "eth_accounts", perms[0].ParentCapability)
		require.Equal(t, []common.Address{alice}, perms[0].Caveats[0].Value)
	})
}

func TestForwardFailureUnregisters(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.bg.EXPECT().SendMessage(gomock.Any(), gomock.Any()).Return(apperrors.ErrBackgroundUnavailable)

	err := e.h.HandleRequest(context.Background(), []byte(`{"method":"eth_requestAccounts","requestId":"r"}`), e.src)
	require.Error(t, err)
	require.True(t, errors.Is(err, apperrors.ErrBackgroundUnavailable))
	require.Zero(t, e.pending.Len())
	require.Equal(t, messaging.CodeDisconnected, ToProviderError(err).Code)
}

func TestHandleRequestDecodeError(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	err := e.h.HandleRequest(context.Background(), []byte(`{"method":"eth_subscribe","requestId":"r"}`), e.src)
	require.True(t, errors.Is(err, apperrors.ErrUnsupportedMethod))
	require.Equal(t, messaging.CodeUnsupportedMethod, ToProviderError(err).Code)
	require.Empty(t, e.posted)
}
