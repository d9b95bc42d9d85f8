package dapp

import (
	"encoding/json"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"

	"github.com/fleshka4/dex-bridge/internal/apperrors"
)

// Method is an EIP-1193 provider method name.
type Method string

const (
	MethodChainID            Method = "eth_chainId"
	MethodRequestAccounts    Method = "eth_requestAccounts"
	MethodAccounts           Method = "eth_accounts"
	MethodSendTransaction    Method = "eth_sendTransaction"
	MethodGetCapabilities    Method = "wallet_getCapabilities"
	MethodSwitchChain        Method = "wallet_switchEthereumChain"
	MethodGetPermissions     Method = "wallet_getPermissions"
	MethodRequestPermissions Method = "wallet_requestPermissions"
	MethodRevokePermissions  Method = "wallet_revokePermissions"
	MethodPersonalSign       Method = "personal_sign"
	MethodSignTypedDataV4    Method = "eth_signTypedData_v4"
	MethodSendCalls          Method = "wallet_sendCalls"
	MethodGetCallsStatus     Method = "wallet_getCallsStatus"
)

// Request is a decoded and validated page request. The concrete type tells
// which method it is.
type Request interface {
	Method() Method
	ID() string
	validate() error
}

type envelope struct {
	Name      Method `json:"method"`
	RequestID string `json:"requestId"`
}

func (e envelope) ID() string { return e.RequestID }

func (e envelope) validate() error {
	if strings.TrimSpace(e.RequestID) == "" {
		return errors.Wrap(apperrors.ErrInvalidArgument, "requestId is required")
	}
	return nil
}

// ChainIDRequest is eth_chainId.
type ChainIDRequest struct{ envelope }

func (ChainIDRequest) Method() Method { return MethodChainID }

// RequestAccountsRequest is eth_requestAccounts.
type RequestAccountsRequest struct{ envelope }

func (RequestAccountsRequest) Method() Method { return MethodRequestAccounts }

// AccountsRequest is eth_accounts.
type AccountsRequest struct{ envelope }

func (AccountsRequest) Method() Method { return MethodAccounts }

// GetPermissionsRequest is wallet_getPermissions.
type GetPermissionsRequest struct{ envelope }

func (GetPermissionsRequest) Method() Method { return MethodGetPermissions }

// Transaction is the eth_sendTransaction argument.
type Transaction struct {
	From                 *common.Address `json:"from,omitempty"`
	To                   *common.Address `json:"to,omitempty"`
	Data                 hexutil.Bytes   `json:"data,omitempty"`
	Value                *hexutil.Big    `json:"value,omitempty"`
	Gas                  *hexutil.Uint64 `json:"gas,omitempty"`
	GasPrice             *hexutil.Big    `json:"gasPrice,omitempty"`
	MaxFeePerGas         *hexutil.Big    `json:"maxFeePerGas,omitempty"`
	MaxPriorityFeePerGas *hexutil.Big    `json:"maxPriorityFeePerGas,omitempty"`
	Nonce                *hexutil.Uint64 `json:"nonce,omitempty"`
	ChainID              *hexutil.Big    `json:"chainId,omitempty"`
}

// SendTransactionRequest is eth_sendTransaction.
type SendTransactionRequest struct {
	envelope
	Transaction Transaction `json:"transaction"`
}

func (SendTransactionRequest) Method() Method { return MethodSendTransaction }

func (r SendTransactionRequest) calls() []call {
	return []call{{from: r.Transaction.From, to: r.Transaction.To, data: r.Transaction.Data}}
}

// GetCapabilitiesRequest is wallet_getCapabilities for one connected account.
type GetCapabilitiesRequest struct {
	envelope
	Address  common.Address   `json:"address"`
	ChainIDs []hexutil.Uint64 `json:"chainIds,omitempty"`
}

func (GetCapabilitiesRequest) Method() Method            { return MethodGetCapabilities }
func (r GetCapabilitiesRequest) account() common.Address { return r.Address }

func (r GetCapabilitiesRequest) validate() error {
	if err := r.envelope.validate(); err != nil {
		return err
	}
	return requireAddress(r.Address)
}

// SwitchChainRequest is wallet_switchEthereumChain.
type SwitchChainRequest struct {
	envelope
	ChainID hexutil.Uint64 `json:"chainId"`
}

func (SwitchChainRequest) Method() Method { return MethodSwitchChain }

func (r SwitchChainRequest) validate() error {
	if err := r.envelope.validate(); err != nil {
		return err
	}
	if r.ChainID == 0 {
		return errors.Wrap(apperrors.ErrInvalidArgument, "chainId is required")
	}
	return nil
}

// RequestPermissionsRequest is wallet_requestPermissions.
type RequestPermissionsRequest struct {
	envelope
	Permissions map[string]json.RawMessage `json:"permissions"`
}

func (RequestPermissionsRequest) Method() Method { return MethodRequestPermissions }

// RevokePermissionsRequest is wallet_revokePermissions.
type RevokePermissionsRequest struct {
	envelope
	Permissions map[string]json.RawMessage `json:"permissions"`
}

func (RevokePermissionsRequest) Method() Method { return MethodRevokePermissions }

// PersonalSignRequest is personal_sign.
type PersonalSignRequest struct {
	envelope
	Address    common.Address `json:"address"`
	MessageHex hexutil.Bytes  `json:"messageHex"`
}

func (PersonalSignRequest) Method() Method            { return MethodPersonalSign }
func (r PersonalSignRequest) account() common.Address { return r.Address }

func (r PersonalSignRequest) validate() error {
	if err := r.envelope.validate(); err != nil {
		return err
	}
	return requireAddress(r.Address)
}

// SignTypedDataRequest is eth_signTypedData_v4.
type SignTypedDataRequest struct {
	envelope
	Address   common.Address  `json:"address"`
	TypedData json.RawMessage `json:"typedData"`
}

func (SignTypedDataRequest) Method() Method            { return MethodSignTypedDataV4 }
func (r SignTypedDataRequest) account() common.Address { return r.Address }

func (r SignTypedDataRequest) validate() error {
	if err := r.envelope.validate(); err != nil {
		return err
	}
	if len(r.TypedData) == 0 || string(r.TypedData) == "null" {
		return errors.Wrap(apperrors.ErrInvalidArgument, "typedData is required")
	}
	return requireAddress(r.Address)
}

// Call is one call of a wallet_sendCalls batch.
type Call struct {
	To    *common.Address `json:"to,omitempty"`
	Data  hexutil.Bytes   `json:"data,omitempty"`
	Value *hexutil.Big    `json:"value,omitempty"`
}

// SendCallsParams is the EIP-5792 wallet_sendCalls argument.
type SendCallsParams struct {
	Version      string                     `json:"version"`
	ID           string                     `json:"id,omitempty"`
	From         *common.Address            `json:"from,omitempty"`
	ChainID      hexutil.Uint64             `json:"chainId"`
	AtomicReq    bool                       `json:"atomicRequired,omitempty"`
	Calls        []Call                     `json:"calls"`
	Capabilities map[string]json.RawMessage `json:"capabilities,omitempty"`
}

// SendCallsRequest is wallet_sendCalls.
type SendCallsRequest struct {
	envelope
	SendCallsParams SendCallsParams `json:"sendCallsParams"`
}

func (SendCallsRequest) Method() Method { return MethodSendCalls }

func (r SendCallsRequest) validate() error {
	if err := r.envelope.validate(); err != nil {
		return err
	}
	if len(r.SendCallsParams.Calls) == 0 {
		return errors.Wrap(apperrors.ErrInvalidArgument, "calls are required")
	}
	return nil
}

func (r SendCallsRequest) calls() []call {
	out := make([]call, len(r.SendCallsParams.Calls))
	for i, c := range r.SendCallsParams.Calls {
		out[i] = call{from: r.SendCallsParams.From, to: c.To, data: c.Data}
	}
	return out
}

// GetCallsStatusRequest is wallet_getCallsStatus.
type GetCallsStatusRequest struct {
	envelope
	BatchID string `json:"batchId"`
}

func (GetCallsStatusRequest) Method() Method { return MethodGetCallsStatus }

func (r GetCallsStatusRequest) validate() error {
	if err := r.envelope.validate(); err != nil {
		return err
	}
	if r.BatchID == "" {
		return errors.Wrap(apperrors.ErrInvalidArgument, "batchId is required")
	}
	return nil
}

var decoders = map[Method]func() Request{
	MethodChainID:            func() Request { return &ChainIDRequest{} },
	MethodRequestAccounts:    func() Request { return &RequestAccountsRequest{} },
	MethodAccounts:           func() Request { return &AccountsRequest{} },
	MethodGetPermissions:     func() Request { return &GetPermissionsRequest{} },
	MethodSendTransaction:    func() Request { return &SendTransactionRequest{} },
	MethodGetCapabilities:    func() Request { return &GetCapabilitiesRequest{} },
	MethodSwitchChain:        func() Request { return &SwitchChainRequest{} },
	MethodRequestPermissions: func() Request { return &RequestPermissionsRequest{} },
	MethodRevokePermissions:  func() Request { return &RevokePermissionsRequest{} },
	MethodPersonalSign:       func() Request { return &PersonalSignRequest{} },
	MethodSignTypedDataV4:    func() Request { return &SignTypedDataRequest{} },
	MethodSendCalls:          func() Request { return &SendCallsRequest{} },
	MethodGetCallsStatus:     func() Request { return &GetCallsStatusRequest{} },
}

// DecodeRequest parses raw into the request type named by its method and
// validates it. Nothing is dispatched for a request that fails here.
func DecodeRequest(raw []byte) (Request, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, errors.Wrapf(apperrors.ErrInvalidArgument, "json.Unmarshal: %v", err)
	}
	newRequest, ok := decoders[env.Name]
	if !ok {
		return nil, errors.Wrapf(apperrors.ErrUnsupportedMethod, "%q", env.Name)
	}
	req := newRequest()
	if err := json.Unmarshal(raw, req); err != nil {
		return nil, errors.Wrapf(apperrors.ErrInvalidArgument, "%s: %v", env.Name, err)
	}
	if err := req.validate(); err != nil {
		return nil, errors.Wrap(err, string(env.Name))
	}
	return req, nil
}

// PeekRequestID extracts the request id from a request that may not decode.
func PeekRequestID(raw []byte) string {
	var env envelope
	_ = json.Unmarshal(raw, &env)
	return env.RequestID
}

func requireAddress(a common.Address) error {
	if a == (common.Address{}) {
		return errors.Wrap(apperrors.ErrInvalidArgument, "address is required")
	}
	return nil
}
