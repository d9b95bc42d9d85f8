package dapp

import (
	"context"
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/fleshka4/dex-bridge/internal/apperrors"
	"github.com/fleshka4/dex-bridge/internal/extension/messaging"
	"github.com/fleshka4/dex-bridge/internal/extension/pending"
)

// Outcome is what a listener decided for one background response. Applying it
// is left to the Handler.
type Outcome struct {
	// Reply is posted to the page that issued the request.
	Reply any
	// Next replaces the cached state when set.
	Next *State
	// Provider asks for a fresh provider to be stored in Next.
	Provider *ProviderTarget
	// Events are posted to the page after Reply.
	Events []messaging.PageEvent
}

// ProviderTarget names the chain a new provider should be opened for.
type ProviderTarget struct {
	ChainID uint64
	RPCURL  string
}

// listener is a pure transition for one response type.
type listener func(resp messaging.BackgroundResponse, s State) (Outcome, error)

func listeners() map[messaging.ResponseType]listener {
	return map[messaging.ResponseType]listener{
		messaging.ResponseAccount:           onAccount,
		messaging.ResponseChainChange:       onChainChange,
		messaging.ResponseSendTransaction:   onSendTransaction,
		messaging.ResponseSignMessage:       onSignature,
		messaging.ResponseSignTypedData:     onSignature,
		messaging.ResponsePermissions:       onPermissions,
		messaging.ResponseRevokePermissions: onRevokePermissions,
		messaging.ResponseSendCalls:         passthrough,
		messaging.ResponseGetCallsStatus:    passthrough,
		messaging.ResponseGetCapabilities:   passthrough,
		messaging.ResponseError:             onError,
	}
}

// AccountPayload is the background's answer to GetAccount.
type AccountPayload struct {
	ConnectedAddresses []common.Address `json:"connectedAddresses"`
	ChainID            hexutil.Uint64   `json:"chainId"`
	ProviderURL        string           `json:"providerUrl,omitempty"`
}

// ChainPayload carries a chain and the RPC endpoint to use for it.
type ChainPayload struct {
	ChainID     hexutil.Uint64 `json:"chainId"`
	ProviderURL string         `json:"providerUrl,omitempty"`
}

// PermissionsPayload answers RequestPermissions. AccountResponse is set when
// the grant connected accounts.
type PermissionsPayload struct {
	Permissions     []Permission    `json:"permissions"`
	AccountResponse *AccountPayload `json:"accountResponse,omitempty"`
}

type transactionPayload struct {
	TransactionHash common.Hash `json:"transactionHash"`
}

type signaturePayload struct {
	Signature hexutil.Bytes `json:"signature"`
}

func decodePayload(resp messaging.BackgroundResponse, v any) error {
	if len(resp.Payload) == 0 {
		return errors.Wrapf(apperrors.ErrInvalidArgument, "%s: empty payload", resp.Type)
	}
	if err := json.Unmarshal(resp.Payload, v); err != nil {
		return errors.Wrapf(apperrors.ErrInvalidArgument, "%s: %v", resp.Type, err)
	}
	return nil
}

func onAccount(resp messaging.BackgroundResponse, s State) (Outcome, error) {
	var p AccountPayload
	if err := decodePayload(resp, &p); err != nil {
		return Outcome{}, err
	}
	return connect(resp.RequestID, s, p, p.ConnectedAddresses), nil
}

func onPermissions(resp messaging.BackgroundResponse, s State) (Outcome, error) {
	var p PermissionsPayload
	if err := decodePayload(resp, &p); err != nil {
		return Outcome{}, err
	}
	if p.Permissions == nil {
		p.Permissions = []Permission{}
	}
	if p.AccountResponse == nil {
		return Outcome{Reply: messaging.PageResponse{RequestID: resp.RequestID, Result: p.Permissions}}, nil
	}
	return connect(resp.RequestID, s, *p.AccountResponse, p.Permissions), nil
}

// connect stores the accounts and chain of p. The page gets connect when no
// chain was cached before, chainChanged when the chain moved, and
// accountsChanged when an existing connection changed accounts.
func connect(requestID string, s State, p AccountPayload, result any) Outcome {
	next := State{
		Addresses: append([]common.Address(nil), p.ConnectedAddresses...),
		ChainID:   uint64(p.ChainID),
		Provider:  s.Provider,
	}
	out := Outcome{
		Reply: messaging.PageResponse{RequestID: requestID, Result: result},
		Next:  &next,
	}
	if next.ChainID == 0 {
		next.ChainID = s.ChainID
	} else if next.ChainID != s.ChainID || s.Provider == nil {
		out.Provider = &ProviderTarget{ChainID: next.ChainID, RPCURL: p.ProviderURL}
	}
	if next.ChainID != 0 {
		out.Events = chainEvents(s.ChainID, next.ChainID)
	}
	if s.Connected() && !sameAddresses(s.Addresses, next.Addresses) {
		out.Events = append(out.Events, accountsChanged(next.Addresses))
	}
	return out
}

func onChainChange(resp messaging.BackgroundResponse, s State) (Outcome, error) {
	var p ChainPayload
	if err := decodePayload(resp, &p); err != nil {
		return Outcome{}, err
	}
	if p.ChainID == 0 {
		return Outcome{}, errors.Wrap(apperrors.ErrInvalidArgument, "chainId is required")
	}
	next := s.clone()
	next.ChainID = uint64(p.ChainID)
	return Outcome{
		Reply:    messaging.PageResponse{RequestID: resp.RequestID, Result: nil},
		Next:     &next,
		Provider: &ProviderTarget{ChainID: next.ChainID, RPCURL: p.ProviderURL},
		Events:   chainEvents(s.ChainID, next.ChainID),
	}, nil
}

func onRevokePermissions(resp messaging.BackgroundResponse, s State) (Outcome, error) {
	next := s.clone()
	next.Addresses = nil
	return Outcome{
		Reply:  messaging.PageResponse{RequestID: resp.RequestID, Result: nil},
		Next:   &next,
		Events: []messaging.PageEvent{accountsChanged(nil)},
	}, nil
}

func onSendTransaction(resp messaging.BackgroundResponse, _ State) (Outcome, error) {
	var p transactionPayload
	if err := decodePayload(resp, &p); err != nil {
		return Outcome{}, err
	}
	return Outcome{Reply: messaging.PageResponse{RequestID: resp.RequestID, Result: p.TransactionHash.Hex()}}, nil
}

func onSignature(resp messaging.BackgroundResponse, _ State) (Outcome, error) {
	var p signaturePayload
	if err := decodePayload(resp, &p); err != nil {
		return Outcome{}, err
	}
	return Outcome{Reply: messaging.PageResponse{RequestID: resp.RequestID, Result: p.Signature.String()}}, nil
}

// passthrough replies with the payload untouched. Used for EIP-5792 results
// whose shape the relay does not depend on.
func passthrough(resp messaging.BackgroundResponse, _ State) (Outcome, error) {
	return Outcome{Reply: messaging.PageResponse{RequestID: resp.RequestID, Result: resp.Payload}}, nil
}

// onError hands the background's message to the page untouched.
func onError(resp messaging.BackgroundResponse, _ State) (Outcome, error) {
	if len(resp.Raw) > 0 {
		return Outcome{Reply: resp.Raw}, nil
	}
	return Outcome{Reply: resp}, nil
}

func chainEvents(prev, next uint64) []messaging.PageEvent {
	switch {
	case prev == 0:
		return []messaging.PageEvent{{
			Event: messaging.EventConnect,
			Data:  map[string]string{"chainId": hexutil.EncodeUint64(next)},
		}}
	case prev != next:
		return []messaging.PageEvent{{Event: messaging.EventChainChanged, Data: hexutil.EncodeUint64(next)}}
	default:
		return nil
	}
}

func accountsChanged(addrs []common.Address) messaging.PageEvent {
	if addrs == nil {
		addrs = []common.Address{}
	}
	return messaging.PageEvent{Event: messaging.EventAccountsChanged, Data: addrs}
}

// HandleResponse delivers a background response to the page waiting for it.
// Responses nobody waits for are dropped.
func (h *Handler) HandleResponse(ctx context.Context, raw []byte) error {
	var resp messaging.BackgroundResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return errors.Wrapf(apperrors.ErrInvalidArgument, "dapp.HandleResponse: %v", err)
	}
	resp.Raw = append(json.RawMessage(nil), raw...)
	return h.Deliver(ctx, resp)
}

// Deliver applies the listener for resp.Type and posts the outcome.
func (h *Handler) Deliver(ctx context.Context, resp messaging.BackgroundResponse) error {
	l, ok := h.listeners[resp.Type]
	if !ok {
		h.drop(resp, "unknown response type")
		return nil
	}

	var (
		info  pending.Info
		found bool
	)
	if resp.Type == messaging.ResponseError {
		info, found = h.pending.TakeAny(resp.RequestID)
	} else {
		info, found = h.pending.Take(resp.RequestID, resp.Type)
	}
	if !found {
		h.drop(resp, "no pending request")
		return nil
	}
	h.metrics.PendingRequests.Set(float64(h.pending.Len()))

	out, stale, err := h.apply(l, resp)
	if stale != nil {
		stale.Close()
	}
	if err != nil {
		h.logger.Warn("bad background response",
			zap.String("type", string(resp.Type)),
			zap.String("requestId", resp.RequestID),
			zap.Error(err),
		)
		return h.replyError(ctx, info.Source, resp.RequestID, &messaging.ProviderError{
			Code:    messaging.CodeInternal,
			Message: err.Error(),
		})
	}

	if err := info.Source.PostMessage(ctx, out.Reply); err != nil {
		return errors.Wrap(err, "source.PostMessage")
	}
	for _, ev := range out.Events {
		if err := info.Source.PostMessage(ctx, ev); err != nil {
			return errors.Wrap(err, "source.PostMessage")
		}
	}
	return nil
}

// apply runs l against the cached state and commits the result. It returns
// the provider that was replaced, for the caller to close.
func (h *Handler) apply(l listener, resp messaging.BackgroundResponse) (Outcome, Provider, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	out, err := l(resp, h.state.clone())
	if err != nil || out.Next == nil {
		return out, nil, err
	}

	var stale Provider
	next := *out.Next
	if out.Provider != nil {
		// ethclient dials http endpoints lazily.
		next.Provider = h.openProvider(*out.Provider)
		if h.state.Provider != nil && h.state.Provider != next.Provider {
			stale = h.state.Provider
		}
	}
	h.state = next
	return out, stale, nil
}

func (h *Handler) openProvider(t ProviderTarget) Provider {
	url := t.RPCURL
	if url == "" {
		url = h.rpcURLs[t.ChainID]
	}
	p, err := h.newProvider(t.ChainID, url)
	if err != nil {
		h.logger.Warn("open provider",
			zap.Uint64("chainId", t.ChainID),
			zap.String("rpcUrl", url),
			zap.Error(err),
		)
		return nil
	}
	return p
}

func (h *Handler) drop(resp messaging.BackgroundResponse, why string) {
	h.metrics.DroppedResponses.WithLabelValues(string(resp.Type)).Inc()
	h.logger.Debug("background response dropped",
		zap.String("type", string(resp.Type)),
		zap.String("requestId", resp.RequestID),
		zap.String("reason", why),
	)
}
