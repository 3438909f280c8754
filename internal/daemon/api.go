package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/backkem/ieee1905/pkg/transport"
)

// shutdownTimeout bounds the HTTP server shutdown once Run returns.
const shutdownTimeout = 5 * time.Second

// Status is the body of GET /v1/status.
type Status struct {
	Role         string `json:"role"`
	LocalAddress string `json:"local_address"`
	Listen       string `json:"listen"`
	Transport    string `json:"transport"`
	DrainMode    string `json:"drain_mode"`
	Clients      int    `json:"clients"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Status reports the daemon's identity and configuration.
func (d *Daemon) Status() Status {
	return Status{
		Role:         d.tc.Role().String(),
		LocalAddress: d.tc.LocalAddress().String(),
		Listen:       d.tc.LocalAddr().String(),
		Transport:    d.config.Transport,
		DrainMode:    d.config.DrainMode,
		Clients:      d.hub.ClientCount(),
	}
}

// Handler returns the HTTP API.
func (d *Daemon) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/send", d.handleSend)
		r.Get("/status", d.handleStatus)
		r.Get("/events", d.hub.HandleWebSocket)
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.registry, promhttp.HandlerOpts{}))

	return r
}

func (d *Daemon) handleSend(w http.ResponseWriter, r *http.Request) {
	var req SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "decode request: " + err.Error()})
		return
	}

	mid, err := d.Send(r.Context(), req)
	if err != nil {
		writeJSON(w, sendStatus(err), errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, SendResponse{MID: mid})
}

func sendStatus(err error) int {
	switch {
	case errors.Is(err, ErrUnknownSendType),
		errors.Is(err, ErrMissingDestination),
		errors.Is(err, ErrInvalidRequest),
		errors.Is(err, transport.ErrInvalidAddress):
		return http.StatusBadRequest
	case errors.Is(err, ErrStopped):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (d *Daemon) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, d.Status())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Serve runs the event loop and the HTTP API until ctx is cancelled.
func (d *Daemon) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", d.config.APIAddr)
	if err != nil {
		d.tc.Close()
		return err
	}
	return d.ServeListener(ctx, ln)
}

// ServeListener is Serve on an already bound API listener.
func (d *Daemon) ServeListener(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           d.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		d.log.Infof("api listening on %s", ln.Addr())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	if tcp, ok := ln.Addr().(*net.TCPAddr); ok {
		server, err := d.advertise(tcp)
		if err != nil {
			d.log.Warnf("api not advertised: %v", err)
		} else if server != nil {
			defer server.Shutdown()
		}
	}

	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	loopErr := make(chan error, 1)
	go func() {
		loopErr <- d.Run(loopCtx)
	}()

	var err error
	select {
	case err = <-loopErr:
	case err = <-serveErr:
		cancel()
		<-loopErr
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if serr := srv.Shutdown(shutdownCtx); serr != nil && err == nil {
		err = serr
	}
	return err
}
