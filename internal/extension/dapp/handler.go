// Package dapp relays EIP-1193 provider requests from dapp pages to the wallet
// background and routes the background's answers back to the right page.
package dapp

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/fleshka4/dex-bridge/internal/apperrors"
	"github.com/fleshka4/dex-bridge/internal/extension/messaging"
	"github.com/fleshka4/dex-bridge/internal/extension/pending"
	"github.com/fleshka4/dex-bridge/internal/metrics"
)

// Config wires a Handler.
type Config struct {
	Background     messaging.Background
	Pending        *pending.Map
	NewProvider    ProviderFactory
	DefaultChainID uint64
	// RPCURLs is used when a background response names a chain but no URL.
	RPCURLs map[uint64]string
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

func (c *Config) validate() error {
	if c.Background == nil {
		return errors.Wrap(apperrors.ErrInvalidArgument, "background is required")
	}
	if c.Pending == nil {
		return errors.Wrap(apperrors.ErrInvalidArgument, "pending map is required")
	}
	if c.NewProvider == nil {
		return errors.Wrap(apperrors.ErrInvalidArgument, "provider factory is required")
	}
	if c.DefaultChainID == 0 {
		return errors.Wrap(apperrors.ErrInvalidArgument, "default chain id is required")
	}
	return nil
}

// Handler dispatches page requests and background responses for one wallet.
type Handler struct {
	mu    sync.Mutex
	state State

	background     messaging.Background
	pending        *pending.Map
	newProvider    ProviderFactory
	defaultChainID uint64
	rpcURLs        map[uint64]string
	listeners      map[messaging.ResponseType]listener

	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewHandler validates cfg and returns a Handler with an empty connection state.
func NewHandler(cfg Config) (*Handler, error) {
	if err := cfg.validate(); err != nil {
		return nil, errors.Wrap(err, "dapp.NewHandler")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.New(nil)
	}
	return &Handler{
		background:     cfg.Background,
		pending:        cfg.Pending,
		newProvider:    cfg.NewProvider,
		defaultChainID: cfg.DefaultChainID,
		rpcURLs:        cfg.RPCURLs,
		listeners:      listeners(),
		logger:         cfg.Logger,
		metrics:        cfg.Metrics,
	}, nil
}

// State returns a copy of the cached connection state.
func (h *Handler) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.state.clone()
}

// Close releases the cached provider.
func (h *Handler) Close() {
	h.mu.Lock()
	p := h.state.Provider
	h.state.Provider = nil
	h.mu.Unlock()

	if p != nil {
		p.Close()
	}
}

// HandleRequest decodes raw and dispatches it. A request that does not decode
// is returned as an error and never reaches a handler.
func (h *Handler) HandleRequest(ctx context.Context, raw []byte, src messaging.Source) error {
	req, err := DecodeRequest(raw)
	if err != nil {
		h.metrics.RejectedRequests.WithLabelValues("unknown", reason(err)).Inc()
		return errors.Wrap(err, "dapp.HandleRequest")
	}
	return h.Dispatch(ctx, req, src)
}

// Dispatch runs the guards for req and then its handler. Rejections are posted
// to src; the returned error only reports failures to talk to src or the
// background.
func (h *Handler) Dispatch(ctx context.Context, req Request, src messaging.Source) error {
	method := string(req.Method())
	h.metrics.DispatchedRequests.WithLabelValues(method).Inc()

	state := h.State()
	if err := checkGuards(state, req); err != nil {
		h.metrics.RejectedRequests.WithLabelValues(method, reason(err)).Inc()
		h.logger.Info("request rejected",
			zap.String("method", method),
			zap.String("requestId", req.ID()),
			zap.String("source", src.ID()),
			zap.Error(err),
		)
		return h.replyError(ctx, src, req.ID(), ToProviderError(err))
	}

	switch r := req.(type) {
	case *ChainIDRequest:
		chainID := state.ChainID
		if chainID == 0 {
			chainID = h.defaultChainID
		}
		return h.reply(ctx, src, r.ID(), hexutil.EncodeUint64(chainID))
	case *AccountsRequest:
		if !state.Connected() {
			return h.replyError(ctx, src, r.ID(), messaging.Unauthorized())
		}
		return h.reply(ctx, src, r.ID(), state.Addresses)
	case *RequestAccountsRequest:
		if state.FullyConnected() {
			return h.reply(ctx, src, r.ID(), state.Addresses)
		}
		return h.forward(ctx, r, src, messaging.ResponseAccount, messaging.RequestGetAccount, nil)
	case *GetPermissionsRequest:
		return h.reply(ctx, src, r.ID(), accountPermissions(src.Origin(), state.Addresses))
	case *SendTransactionRequest:
		return h.forward(ctx, r, src, messaging.ResponseSendTransaction, messaging.RequestSendTransaction, r.Transaction)
	case *GetCapabilitiesRequest:
		return h.forward(ctx, r, src, messaging.ResponseGetCapabilities, messaging.RequestGetCapabilities, capabilitiesPayload{
			Address:  r.Address,
			ChainIDs: r.ChainIDs,
		})
	case *SwitchChainRequest:
		return h.forward(ctx, r, src, messaging.ResponseChainChange, messaging.RequestChangeChain, chainPayload{ChainID: r.ChainID})
	case *RequestPermissionsRequest:
		return h.forward(ctx, r, src, messaging.ResponsePermissions, messaging.RequestPermissions, r.Permissions)
	case *RevokePermissionsRequest:
		return h.forward(ctx, r, src, messaging.ResponseRevokePermissions, messaging.RequestRevokePermissions, r.Permissions)
	case *PersonalSignRequest:
		return h.forward(ctx, r, src, messaging.ResponseSignMessage, messaging.RequestSignMessage, signPayload{
			Address:    r.Address,
			MessageHex: r.MessageHex,
		})
	case *SignTypedDataRequest:
		return h.forward(ctx, r, src, messaging.ResponseSignTypedData, messaging.RequestSignTypedData, signTypedDataPayload{
			Address:   r.Address,
			TypedData: r.TypedData,
		})
	case *SendCallsRequest:
		return h.forward(ctx, r, src, messaging.ResponseSendCalls, messaging.RequestSendCalls, r.SendCallsParams)
	case *GetCallsStatusRequest:
		return h.forward(ctx, r, src, messaging.ResponseGetCallsStatus, messaging.RequestGetCallsStatus, callsStatusPayload{BatchID: r.BatchID})
	default:
		return errors.Wrapf(apperrors.ErrUnsupportedMethod, "dapp.Dispatch: %s", method)
	}
}

type capabilitiesPayload struct {
	Address  common.Address   `json:"address"`
	ChainIDs []hexutil.Uint64 `json:"chainIds,omitempty"`
}

type chainPayload struct {
	ChainID hexutil.Uint64 `json:"chainId"`
}

type signPayload struct {
	Address    common.Address `json:"address"`
	MessageHex hexutil.Bytes  `json:"messageHex"`
}

type signTypedDataPayload struct {
	Address   common.Address  `json:"address"`
	TypedData json.RawMessage `json:"typedData"`
}

type callsStatusPayload struct {
	BatchID string `json:"batchId"`
}

// forward registers the request before sending it so a fast response always
// finds its entry.
func (h *Handler) forward(
	ctx context.Context,
	req Request,
	src messaging.Source,
	expect messaging.ResponseType,
	typ messaging.DappRequestType,
	payload any,
) error {
	h.pending.Register(req.ID(), expect, src)
	h.metrics.PendingRequests.Set(float64(h.pending.Len()))

	err := h.background.SendMessage(ctx, messaging.BackgroundRequest{
		Type:      typ,
		RequestID: req.ID(),
		Origin:    src.Origin(),
		Payload:   payload,
	})
	if err != nil {
		h.pending.Unregister(req.ID())
		h.metrics.PendingRequests.Set(float64(h.pending.Len()))
		return errors.Wrap(err, "background.SendMessage")
	}
	return nil
}

func (h *Handler) reply(ctx context.Context, src messaging.Source, requestID string, result any) error {
	err := src.PostMessage(ctx, messaging.PageResponse{RequestID: requestID, Result: result})
	return errors.Wrap(err, "source.PostMessage")
}

func (h *Handler) replyError(ctx context.Context, src messaging.Source, requestID string, perr *messaging.ProviderError) error {
	err := src.PostMessage(ctx, messaging.PageErrorResponse{RequestID: requestID, Error: perr})
	return errors.Wrap(err, "source.PostMessage")
}

// ToProviderError maps err to the provider error a page should see.
func ToProviderError(err error) *messaging.ProviderError {
	var perr *messaging.ProviderError
	switch {
	case errors.As(err, &perr):
		return perr
	case errors.Is(err, apperrors.ErrUnauthorized):
		return messaging.Unauthorized()
	case errors.Is(err, apperrors.ErrSelfCallWithData), errors.Is(err, apperrors.ErrInvalidArgument):
		return messaging.InvalidParams(err.Error())
	case errors.Is(err, apperrors.ErrUnsupportedMethod):
		return &messaging.ProviderError{Code: messaging.CodeUnsupportedMethod, Message: err.Error()}
	case errors.Is(err, apperrors.ErrBackgroundUnavailable):
		return messaging.Disconnected()
	default:
		return &messaging.ProviderError{Code: messaging.CodeInternal, Message: "internal error"}
	}
}

func reason(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, apperrors.ErrSelfCallWithData):
		return "self_call_with_data"
	case errors.Is(err, apperrors.ErrUnsupportedMethod):
		return "unsupported_method"
	case errors.Is(err, apperrors.ErrInvalidArgument):
		return "invalid_argument"
	default:
		return "internal"
	}
}

// Permission is an EIP-2255 permission object.
type Permission struct {
	Invoker          string   `json:"invoker"`
	ParentCapability string   `json:"parentCapability"`
	Caveats          []Caveat `json:"caveats"`
}

type Caveat struct {
	Type  string `json:"type"`
	Value any    `json:"value"`
}

func accountPermissions(origin string, addrs []common.Address) []Permission {
	if len(addrs) == 0 {
		return []Permission{}
	}
	return []Permission{{
		Invoker:          origin,
		ParentCapability: string(MethodAccounts),
		Caveats: []Caveat{{
			Type:  "restrictReturnedAccounts",
			Value: addrs,
		}},
	}}
}
