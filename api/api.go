package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/vocdoni/confidential-transfers/ledger"
	"github.com/vocdoni/confidential-transfers/log"
	"github.com/vocdoni/confidential-transfers/types"
)

// APIConfig type represents the configuration for the API HTTP server.
// It includes the host, port, the ledger served and the hash of its
// verifying key.
type APIConfig struct {
	Host             string
	Port             int
	Ledger           *ledger.Ledger
	VerifyingKeyHash types.HexBytes
}

// API type represents the API HTTP server of a ledger node.
type API struct {
	router   *chi.Mux
	ledger   *ledger.Ledger
	vkHash   types.HexBytes
	server   *http.Server
	listener net.Listener
}

// NewRouter returns an API instance with its router initialized, without
// starting the HTTP server.
func NewRouter(conf *APIConfig) (*API, error) {
	if conf == nil {
		return nil, fmt.Errorf("missing API configuration")
	}
	if conf.Ledger == nil {
		return nil, fmt.Errorf("missing ledger instance")
	}
	a := &API{
		ledger: conf.Ledger,
		vkHash: conf.VerifyingKeyHash,
	}

	// Initialize router
	a.initRouter()
	return a, nil
}

// New creates a new API instance with the given configuration and starts
// the HTTP server.
func New(conf *APIConfig) (*API, error) {
	a, err := NewRouter(conf)
	if err != nil {
		return nil, err
	}
	a.listener, err = net.Listen("tcp", fmt.Sprintf("%s:%d", conf.Host, conf.Port))
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %w", err)
	}
	a.server = &http.Server{
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Infow("Starting API server", "address", a.listener.Addr().String())
		if err := a.server.Serve(a.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorw(err, "API server stopped")
		}
	}()
	return a, nil
}

// Addr returns the address the server listens on.
func (a *API) Addr() net.Addr {
	if a.listener == nil {
		return nil
	}
	return a.listener.Addr()
}

// Close stops the HTTP server.
func (a *API) Close(ctx context.Context) error {
	if a.server == nil {
		return nil
	}
	return a.server.Shutdown(ctx)
}

// Router returns the chi router for testing purposes
func (a *API) Router() *chi.Mux {
	return a.router
}

// registerHandlers registers all the API handlers.
func (a *API) registerHandlers() {
	log.Infow("register handler", "endpoint", PingEndpoint, "method", "GET")
	a.router.Get(PingEndpoint, func(w http.ResponseWriter, r *http.Request) {
		httpWriteOK(w)
	})
	log.Infow("register handler", "endpoint", InfoEndpoint, "method", "GET")
	a.router.Get(InfoEndpoint, a.info)
	log.Infow("register handler", "endpoint", StateEndpoint, "method", "GET")
	a.router.Get(StateEndpoint, a.state)
	log.Infow("register handler", "endpoint", AccountsEndpoint, "method", "POST")
	a.router.Post(AccountsEndpoint, a.newAccount)
	log.Infow("register handler", "endpoint", AccountEndpoint, "method", "GET")
	a.router.Get(AccountEndpoint, a.account)
	log.Infow("register handler", "endpoint", AccountProofEndpoint, "method", "GET")
	a.router.Get(AccountProofEndpoint, a.accountProof)
	log.Infow("register handler", "endpoint", TransfersEndpoint, "method", "POST")
	a.router.Post(TransfersEndpoint, a.newTransfer)
	log.Infow("register handler", "endpoint", TransferEndpoint, "method", "GET")
	a.router.Get(TransferEndpoint, a.transfer)
}

// initRouter creates the router with all the routes and middleware.
func (a *API) initRouter() {
	// Create the router with a basic middleware stack
	a.router = chi.NewRouter()
	a.router.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}).Handler)
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Throttle(100))
	a.router.Use(middleware.ThrottleBacklog(5000, 40000, 60*time.Second))
	a.router.Use(middleware.Timeout(45 * time.Second))

	// Register the API handlers
	a.registerHandlers()
}
