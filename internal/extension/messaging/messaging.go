// Package messaging defines the envelopes exchanged between dapp pages, the
// relay and the wallet background process.
package messaging

//go:generate mockgen -source=messaging.go -destination=mock/messaging.go -package=mock

import (
	"context"
	"encoding/json"
)

// Source is the page endpoint a request came from. Replies and events for that
// request are posted back through it.
type Source interface {
	ID() string
	Origin() string
	PostMessage(ctx context.Context, msg any) error
}

// Background is the channel to the wallet background process.
type Background interface {
	SendMessage(ctx context.Context, req BackgroundRequest) error
}

// DappRequestType tags requests forwarded to the background.
type DappRequestType string

const (
	RequestGetAccount        DappRequestType = "GetAccount"
	RequestSendTransaction   DappRequestType = "SendTransaction"
	RequestGetCapabilities   DappRequestType = "GetCapabilities"
	RequestChangeChain       DappRequestType = "ChangeChain"
	RequestPermissions       DappRequestType = "RequestPermissions"
	RequestRevokePermissions DappRequestType = "RevokePermissions"
	RequestSignMessage       DappRequestType = "SignMessage"
	RequestSignTypedData     DappRequestType = "SignTypedData"
	RequestSendCalls         DappRequestType = "SendCalls"
	RequestGetCallsStatus    DappRequestType = "GetCallsStatus"
)

// ResponseType tags responses coming back from the background.
type ResponseType string

const (
	ResponseAccount           ResponseType = "AccountResponse"
	ResponseChainChange       ResponseType = "ChainChangeResponse"
	ResponseSendTransaction   ResponseType = "SendTransactionResponse"
	ResponseSignMessage       ResponseType = "SignMessageResponse"
	ResponseSignTypedData     ResponseType = "SignTypedDataResponse"
	ResponsePermissions       ResponseType = "RequestPermissionsResponse"
	ResponseRevokePermissions ResponseType = "RevokePermissionsResponse"
	ResponseSendCalls         ResponseType = "SendCallsResponse"
	ResponseGetCallsStatus    ResponseType = "GetCallsStatusResponse"
	ResponseGetCapabilities   ResponseType = "GetCapabilitiesResponse"
	ResponseError             ResponseType = "ErrorResponse"
)

// BackgroundRequest is the envelope sent to the background.
type BackgroundRequest struct {
	Type      DappRequestType `json:"type"`
	RequestID string          `json:"requestId"`
	Origin    string          `json:"origin,omitempty"`
	Payload   any             `json:"payload,omitempty"`
}

// BackgroundResponse is the envelope received from the background. Payload is
// decoded by the listener registered for Type.
type BackgroundResponse struct {
	Type      ResponseType    `json:"type"`
	RequestID string          `json:"requestId"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Error     *ProviderError  `json:"error,omitempty"`

	// Raw is the message as received, when it came off the wire.
	Raw json.RawMessage `json:"-"`
}

// PageResponse answers a page request. A nil Result is sent as null.
type PageResponse struct {
	RequestID string `json:"requestId"`
	Result    any    `json:"result"`
}

// PageErrorResponse rejects a page request.
type PageErrorResponse struct {
	RequestID string         `json:"requestId"`
	Error     *ProviderError `json:"error"`
}

// PageEvent is an unsolicited provider event such as connect or chainChanged.
type PageEvent struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Provider events.
const (
	EventConnect         = "connect"
	EventChainChanged    = "chainChanged"
	EventAccountsChanged = "accountsChanged"
)
