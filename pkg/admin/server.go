// Package admin exposes a small fasthttp status surface over a running
// Runtime: /processes lists every live process and its link set,
// /metrics mounts the Prometheus registry from pkg/telemetry. It wraps a
// *runtime.Runtime the way a status-endpoint inspector would, reshaped
// onto fasthttp and trimmed of a CCU backpressure controller and
// request worker pool — admin traffic here is operator-driven
// introspection, not a high-RPS request path, so the non-blocking-send /
// no-backpressure posture from spec §1's Non-goals applies here too.
package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fluxorio/relay/pkg/registry"
	"github.com/fluxorio/relay/pkg/telemetry"
	"github.com/valyala/fasthttp"
)

// Fleet is the subset of *runtime.Runtime the admin surface needs. Kept
// as an interface so this package never imports pkg/runtime directly,
// avoiding a dependency edge the admin surface doesn't otherwise need.
type Fleet interface {
	Processes() []ProcessInfo
	Len() int
}

// ProcessInfo is a point-in-time snapshot of one process, returned by
// Fleet.Processes for the /processes endpoint.
type ProcessInfo struct {
	ID         registry.Identity   `json:"id"`
	Name       string              `json:"name"`
	Alive      bool                `json:"alive"`
	MailboxLen int                 `json:"mailbox_len"`
	Links      []registry.Identity `json:"links"`
}

// Server is the admin HTTP surface. One Server wraps one Fleet.
type Server struct {
	fleet   Fleet
	metrics *telemetry.Metrics
	srv     *fasthttp.Server
	addr    string
}

// Config configures a Server.
type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ReadBufferSize  int
	WriteBufferSize int
}

// DefaultConfig returns sane defaults for a local admin surface.
func DefaultConfig(addr string) Config {
	return Config{
		Addr:            addr,
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    5 * time.Second,
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
	}
}

// New builds a Server over fleet, with metrics (may be nil to disable
// /metrics).
func New(cfg Config, fleet Fleet, metrics *telemetry.Metrics) *Server {
	s := &Server{fleet: fleet, metrics: metrics, addr: cfg.Addr}
	s.srv = &fasthttp.Server{
		Handler:               s.route,
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		ReadBufferSize:        cfg.ReadBufferSize,
		WriteBufferSize:       cfg.WriteBufferSize,
		NoDefaultServerHeader: true,
	}
	return s
}

// Start begins serving, blocking the calling goroutine the way
// fasthttp.Server.ListenAndServe does; callers typically run it in its
// own goroutine.
func (s *Server) Start() error {
	return s.srv.ListenAndServe(s.addr)
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.ShutdownWithContext(ctx)
}

func (s *Server) route(ctx *fasthttp.RequestCtx) {
	switch string(ctx.Path()) {
	case "/processes":
		s.handleProcesses(ctx)
	case "/metrics":
		s.handleMetrics(ctx)
	case "/health":
		ctx.SetStatusCode(fasthttp.StatusOK)
		ctx.SetContentType("text/plain")
		ctx.WriteString("ok")
	default:
		ctx.Error("not found", fasthttp.StatusNotFound)
	}
}

func (s *Server) handleProcesses(ctx *fasthttp.RequestCtx) {
	procs := s.fleet.Processes()
	body, err := json.Marshal(struct {
		Count     int           `json:"count"`
		Processes []ProcessInfo `json:"processes"`
	}{Count: len(procs), Processes: procs})
	if err != nil {
		ctx.Error(fmt.Sprintf("encode error: %v", err), fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}

func (s *Server) handleMetrics(ctx *fasthttp.RequestCtx) {
	if s.metrics == nil {
		ctx.Error("metrics disabled", fasthttp.StatusNotFound)
		return
	}
	s.metrics.Handler()(ctx)
}
