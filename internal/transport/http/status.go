package http

import (
	"context"
	"net/http"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"
)

// StatusReport is the body of GET /status.
type StatusReport struct {
	BackgroundAttached bool          `json:"backgroundAttached"`
	Connected          bool          `json:"connected"`
	Accounts           int           `json:"accounts"`
	ChainID            string        `json:"chainId,omitempty"`
	PendingRequests    int           `json:"pendingRequests"`
	Chains             []ChainReport `json:"chains"`
}

// ChainReport is the health of one configured chain.
type ChainReport struct {
	ChainID     uint64 `json:"chainId"`
	BlockNumber uint64 `json:"blockNumber,omitempty"`
	Healthy     bool   `json:"healthy"`
	Error       string `json:"error,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	report := StatusReport{
		PendingRequests: s.pendingLen(),
		Chains:          s.chainReports(ctx),
	}
	if s.background != nil {
		report.BackgroundAttached = s.background.Attached()
	}
	if s.relay != nil {
		st := s.relay.State()
		report.Connected = st.Connected()
		report.Accounts = len(st.Addresses)
		if st.ChainID != 0 {
			report.ChainID = hexutil.EncodeUint64(st.ChainID)
		}
	}
	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) chainReports(ctx context.Context) []ChainReport {
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		reports = make([]ChainReport, 0, len(s.chains))
	)
	for id, c := range s.chains {
		wg.Add(1)
		go func() {
			defer wg.Done()

			rep := ChainReport{ChainID: id}
			st, err := c.Status(ctx)
			if err != nil {
				s.logger.Warn("chain status", zap.Uint64("chainId", id), zap.Error(err))
				rep.Error = err.Error()
			} else {
				rep.Healthy = true
				rep.BlockNumber = st.BlockNumber
			}

			mu.Lock()
			reports = append(reports, rep)
			mu.Unlock()
		}()
	}
	wg.Wait()

	sort.Slice(reports, func(i, j int) bool { return reports[i].ChainID < reports[j].ChainID })
	return reports
}
