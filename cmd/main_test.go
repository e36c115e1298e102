package main

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/goleak"

	app "github.com/okian/starter/internal/app"
	"github.com/okian/starter/internal/config"
	"github.com/okian/starter/internal/domain/types"
	"github.com/okian/starter/pkg/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestHandler(cfg *config.Config) (http.Handler, *app.Service) {
	svc := app.New(app.WithLogger(logger.Discard()))
	_ = svc.Start(context.Background())
	return newHandler(context.Background(), cfg, svc, logger.Discard()), svc
}

func serve(h http.Handler, method, target string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandler(t *testing.T) {
	Convey("Given the assembled HTTP handler", t, func() {
		cfg := config.New()
		h, svc := newTestHandler(cfg)

		Convey("GET /api/hello returns the greeting with a request id", func() {
			rec := serve(h, http.MethodGet, "/api/hello", map[string]string{"Origin": "http://localhost:5173"})
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Header().Get("X-Request-ID"), ShouldNotBeEmpty)
			So(rec.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "*")

			var body types.HelloResponse
			So(json.Unmarshal(rec.Body.Bytes(), &body), ShouldBeNil)
			So(body.Message, ShouldEqual, app.DefaultGreeting)
			_, err := time.Parse(types.TimestampLayout, body.Timestamp)
			So(err, ShouldBeNil)
		})

		Convey("GET /api/health follows the service lifecycle", func() {
			rec := serve(h, http.MethodGet, "/api/health", nil)
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, `"ok"`)

			svc.Stop()
			rec = serve(h, http.MethodGet, "/api/health", nil)
			So(rec.Code, ShouldEqual, http.StatusServiceUnavailable)
			So(rec.Body.String(), ShouldContainSubstring, `"error"`)
		})

		Convey("Unknown API paths are JSON 404s, not the client", func() {
			rec := serve(h, http.MethodGet, "/api/nope", nil)
			So(rec.Code, ShouldEqual, http.StatusNotFound)
			So(rec.Header().Get("Content-Type"), ShouldStartWith, "application/json")
		})

		Convey("Client routes fall back to index.html", func() {
			rec := serve(h, http.MethodGet, "/some/page", nil)
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, "Go + Vanilla JS")
		})

		Convey("Docs and metrics are mounted", func() {
			So(serve(h, http.MethodGet, "/openapi.yaml", nil).Code, ShouldEqual, http.StatusOK)
			So(serve(h, http.MethodGet, "/api-docs", nil).Code, ShouldEqual, http.StatusOK)
			rec := serve(h, http.MethodGet, "/metrics", nil)
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, "starter_api_build_info")
		})

		Convey("Preflight requests are answered by CORS", func() {
			rec := serve(h, http.MethodOptions, "/api/hello", map[string]string{
				"Origin":                        "http://localhost:5173",
				"Access-Control-Request-Method": http.MethodGet,
			})
			So(rec.Code, ShouldEqual, http.StatusNoContent)
			So(rec.Header().Get("Access-Control-Allow-Methods"), ShouldContainSubstring, "GET")
		})
	})

	Convey("Given site and docs disabled", t, func() {
		cfg := config.New()
		cfg.ServeSite = false
		cfg.ServeDocs = false
		h, svc := newTestHandler(cfg)
		defer svc.Stop()

		So(serve(h, http.MethodGet, "/", nil).Code, ShouldEqual, http.StatusNotFound)
		So(serve(h, http.MethodGet, "/openapi.yaml", nil).Code, ShouldEqual, http.StatusNotFound)
		So(serve(h, http.MethodGet, "/api/hello", nil).Code, ShouldEqual, http.StatusOK)
	})
}

func TestRun(t *testing.T) {
	Convey("Given a running server", t, func() {
		cfg := config.New()
		cfg.ShutdownTimeout = 2 * time.Second

		ln, err := net.Listen("tcp", "127.0.0.1:0")
		So(err, ShouldBeNil)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		done := make(chan error, 1)
		go func() { done <- run(ctx, cfg, logger.Discard(), ln) }()

		client := &http.Client{
			Timeout:   2 * time.Second,
			Transport: &http.Transport{DisableKeepAlives: true},
		}
		resp, err := client.Get("http://" + ln.Addr().String() + "/api/hello")
		So(err, ShouldBeNil)
		So(resp.StatusCode, ShouldEqual, http.StatusOK)
		_ = resp.Body.Close()

		cancel()
		select {
		case err := <-done:
			So(err, ShouldBeNil)
		case <-time.After(5 * time.Second):
			t.Fatal("run did not return after cancel")
		}
	})
}

func TestUpdateSystemMetrics(t *testing.T) {
	Convey("Given the system metrics updater", t, func() {
		So(updateSystemMetrics, ShouldNotPanic)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		So(func() { startSystemMetricsUpdater(ctx, 10*time.Millisecond) }, ShouldNotPanic)
	})
}

func TestListenError(t *testing.T) {
	Convey("Given an address that cannot be bound", t, func() {
		cfg := config.New()
		cfg.Addr = "256.0.0.1:http"
		err := run(context.Background(), cfg, logger.Discard(), nil)
		So(err, ShouldNotBeNil)
		So(strings.Contains(err.Error(), "listen"), ShouldBeTrue)
	})
}

type recordingServer struct {
	svc         *app.Service
	healthyAtSD bool
	err         error
}

func (r *recordingServer) Shutdown(ctx context.Context) error {
	r.healthyAtSD = r.svc.Health(ctx).Healthy()
	return r.err
}

func TestShutdown(t *testing.T) {
	Convey("Given a started service behind a server", t, func() {
		svc := app.New(app.WithLogger(logger.Discard()))
		So(svc.Start(context.Background()), ShouldBeNil)
		srv := &recordingServer{svc: svc}

		Convey("When shutting down", func() {
			err := shutdown(svc, srv, time.Second)

			Convey("Then health reports error before the server drains", func() {
				So(err, ShouldBeNil)
				So(srv.healthyAtSD, ShouldBeFalse)
				So(svc.Started(), ShouldBeFalse)
			})
		})

		Convey("When the server fails to drain", func() {
			srv.err = context.DeadlineExceeded
			err := shutdown(svc, srv, time.Second)

			Convey("Then the error is wrapped", func() {
				So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "server shutdown")
			})
		})
	})
}
