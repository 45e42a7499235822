package service

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/vocdoni/confidential-transfers/api"
	"github.com/vocdoni/confidential-transfers/ledger"
	"github.com/vocdoni/confidential-transfers/log"
	"github.com/vocdoni/confidential-transfers/types"
)

// shutdownTimeout bounds the time Stop waits for in flight requests.
const shutdownTimeout = 10 * time.Second

// APIService represents a service that manages the HTTP API server.
type APIService struct {
	ledger *ledger.Ledger
	vkHash types.HexBytes
	api    *api.API
	mu     sync.Mutex
	cancel context.CancelFunc
	host   string
	port   int
}

// NewAPI creates a new APIService instance serving l.
func NewAPI(l *ledger.Ledger, vkHash types.HexBytes, host string, port int) *APIService {
	return &APIService{
		ledger: l,
		vkHash: vkHash,
		host:   host,
		port:   port,
	}
}

// Start begins the API server. It returns an error if the service
// is already running or if it fails to start. The server is stopped when
// ctx is done.
func (as *APIService) Start(ctx context.Context) error {
	as.mu.Lock()
	defer as.mu.Unlock()

	if as.cancel != nil {
		return fmt.Errorf("service already running")
	}

	// Create API instance with existing ledger
	a, err := api.New(&api.APIConfig{
		Host:             as.host,
		Port:             as.port,
		Ledger:           as.ledger,
		VerifyingKeyHash: as.vkHash,
	})
	if err != nil {
		return fmt.Errorf("failed to start API server: %w", err)
	}
	as.api = a

	var sctx context.Context
	sctx, as.cancel = context.WithCancel(ctx)
	go func() {
		<-sctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.Close(shutdownCtx); err != nil {
			log.Warnw("error stopping API server", "error", err.Error())
		}
	}()
	return nil
}

// Stop halts the API server.
func (as *APIService) Stop() {
	as.mu.Lock()
	defer as.mu.Unlock()

	if as.cancel != nil {
		as.cancel()
		as.cancel = nil
	}
}

// HostPort returns the host and port of the API server.
func (as *APIService) HostPort() (string, int) {
	return as.host, as.port
}

// Addr returns the address the API server listens on, or nil if it is not
// running.
func (as *APIService) Addr() net.Addr {
	as.mu.Lock()
	defer as.mu.Unlock()
	if as.api == nil || as.cancel == nil {
		return nil
	}
	return as.api.Addr()
}
