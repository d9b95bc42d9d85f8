package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/fleshka4/dex-bridge/internal/extension/dapp"
	"github.com/fleshka4/dex-bridge/internal/extension/messaging"
	"github.com/fleshka4/dex-bridge/internal/extension/pending"
)

type nopProvider struct{ chainID uint64 }

func (p nopProvider) ChainID() uint64 { return p.chainID }
func (p nopProvider) RPCURL() string  { return "" }
func (p nopProvider) Close()          {}

func newRelayServer(t *testing.T) (*httptest.Server, *dapp.Handler) {
	t.Helper()

	link := NewBackgroundLink()
	handler, err := dapp.NewHandler(dapp.Config{
		Background: link,
		Pending:    pending.New(16, time.Minute),
		NewProvider: func(chainID uint64, _ string) (dapp.Provider, error) {
			return nopProvider{chainID: chainID}, nil
		},
		DefaultChainID: 1,
	})
	require.NoError(t, err)

	server := newTestServer(t, Deps{Relay: handler, Background: link})
	ts := httptest.NewServer(server.mux)
	t.Cleanup(ts.Close)
	return ts, handler
}

func dial(t *testing.T, ts *httptest.Server, path string) *websocket.Conn {
	t.Helper()

	header := http.Header{}
	header.Set("Origin", "https://app.example")
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+path, header)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()

	var msg map[string]any
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func waitAttached(t *testing.T, ts *httptest.Server) {
	t.Helper()

	require.Eventually(t, func() bool {
		resp, err := http.Get(ts.URL + "/status")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		var report StatusReport
		return json.NewDecoder(resp.Body).Decode(&report) == nil && report.BackgroundAttached
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRelayRoundTrip(t *testing.T) {
	t.Parallel()

	ts, handler := newRelayServer(t)
	background := dial(t, ts, "/background")
	waitAttached(t, ts)

	page := dial(t, ts, "/dapp")

	require.NoError(t, page.WriteJSON(map[string]any{"method": "eth_requestAccounts", "requestId": "req-1"}))

	var forwarded messaging.BackgroundRequest
	require.NoError(t, background.ReadJSON(&forwarded))
	require.Equal(t, messaging.RequestGetAccount, forwarded.Type)
	require.Equal(t, "req-1", forwarded.RequestID)
	require.Equal(t, "https://app.example", forwarded.Origin)

	account := "0x00000000000000000000000000000000000a11ce"
	require.NoError(t, background.WriteJSON(map[string]any{
		"type":      "AccountResponse",
		"requestId": "req-1",
		"payload": map[string]any{
			"connectedAddresses": []string{account},
			"chainId":            "0x1",
		},
	}))

	reply := readJSON(t, page)
	require.Equal(t, "req-1", reply["requestId"])
	require.Equal(t, []any{account}, reply["result"])

	event := readJSON(t, page)
	require.Equal(t, messaging.EventConnect, event["event"])

	require.True(t, handler.State().FullyConnected())
	require.Equal(t, []common.Address{common.HexToAddress(account)}, handler.State().Addresses)

	// Gated request from the connected page goes through; a foreign account is refused locally.
	require.NoError(t, page.WriteJSON(map[string]any{
		"method":     "personal_sign",
		"requestId":  "req-2",
		"address":    "0x0000000000000000000000000000000000000b0b",
		"messageHex": "0x00",
	}))
	refused := readJSON(t, page)
	require.Equal(t, "req-2", refused["requestId"])
	require.EqualValues(t, messaging.CodeUnauthorized, refused["error"].(map[string]any)["code"])

	// Unsupported methods are answered by the transport.
	require.NoError(t, page.WriteJSON(map[string]any{"method": "eth_mine", "requestId": "req-3"}))
	unsupported := readJSON(t, page)
	require.Equal(t, "req-3", unsupported["requestId"])
	require.EqualValues(t, messaging.CodeUnsupportedMethod, unsupported["error"].(map[string]any)["code"])
}

func TestRelayWithoutBackground(t *testing.T) {
	t.Parallel()

	ts, _ := newRelayServer(t)
	page := dial(t, ts, "/dapp")

	require.NoError(t, page.WriteJSON(map[string]any{"method": "eth_requestAccounts", "requestId": "r"}))
	reply := readJSON(t, page)
	require.Equal(t, "r", reply["requestId"])
	require.EqualValues(t, messaging.CodeDisconnected, reply["error"].(map[string]any)["code"])

	require.NoError(t, page.WriteJSON(map[string]any{"method": "eth_chainId", "requestId": "c"}))
	require.Equal(t, "0x1", readJSON(t, page)["result"])
}

func TestSecondBackgroundRejected(t *testing.T) {
	t.Parallel()

	ts, _ := newRelayServer(t)
	dial(t, ts, "/background")
	waitAttached(t, ts)

	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/background", nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, resp)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}
