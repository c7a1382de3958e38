package admin

import (
	"encoding/json"
	"testing"

	"github.com/fluxorio/relay/pkg/registry"
	"github.com/valyala/fasthttp"
)

type fakeFleet struct {
	procs []ProcessInfo
}

func (f *fakeFleet) Processes() []ProcessInfo { return f.procs }
func (f *fakeFleet) Len() int                 { return len(f.procs) }

func TestHandleProcesses(t *testing.T) {
	fleet := &fakeFleet{procs: []ProcessInfo{
		{ID: registry.Identity(1), Name: "__main__", Alive: true, MailboxLen: 0, Links: []registry.Identity{2}},
		{ID: registry.Identity(2), Name: "ponger", Alive: true, MailboxLen: 1, Links: []registry.Identity{1}},
	}}
	s := New(DefaultConfig(":0"), fleet, nil)

	var ctx fasthttp.RequestCtx
	var req fasthttp.Request
	req.SetRequestURI("/processes")
	ctx.Init(&req, nil, nil)

	s.route(&ctx)

	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("want 200, got %d", ctx.Response.StatusCode())
	}

	var body struct {
		Count     int           `json:"count"`
		Processes []ProcessInfo `json:"processes"`
	}
	if err := json.Unmarshal(ctx.Response.Body(), &body); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if body.Count != 2 || len(body.Processes) != 2 {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestHandleMetricsDisabled(t *testing.T) {
	s := New(DefaultConfig(":0"), &fakeFleet{}, nil)

	var ctx fasthttp.RequestCtx
	var req fasthttp.Request
	req.SetRequestURI("/metrics")
	ctx.Init(&req, nil, nil)

	s.route(&ctx)

	if ctx.Response.StatusCode() != fasthttp.StatusNotFound {
		t.Fatalf("want 404 when metrics disabled, got %d", ctx.Response.StatusCode())
	}
}

func TestHandleHealth(t *testing.T) {
	s := New(DefaultConfig(":0"), &fakeFleet{}, nil)

	var ctx fasthttp.RequestCtx
	var req fasthttp.Request
	req.SetRequestURI("/health")
	ctx.Init(&req, nil, nil)

	s.route(&ctx)

	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("want 200, got %d", ctx.Response.StatusCode())
	}
}
