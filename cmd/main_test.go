package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	app "github.com/sharveshsanjay/clash-royale/internal/app"
	"github.com/sharveshsanjay/clash-royale/internal/config"
	"github.com/sharveshsanjay/clash-royale/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			t.Setenv("CLASH_ADDR", ":8080")
			t.Setenv("CLASH_ENRICH_WORKERS", "6")
			t.Setenv("CLASH_LOG_FORMAT", "json")

			convey.Convey("Then configuration should be loadable", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.EnrichWorkers, convey.ShouldEqual, 6)

				convey.So(func() { configureLogging(context.Background(), cfg) }, convey.ShouldNotPanic)
				convey.So(logger.SetFormat("text"), convey.ShouldBeNil)
			})
		})

		convey.Convey("When configuring an invalid log level", func() {
			cfg := config.New()
			cfg.LogLevel = "loud"

			convey.Convey("Then it falls back without panicking", func() {
				convey.So(func() { configureLogging(context.Background(), cfg) }, convey.ShouldNotPanic)
			})
		})
	})
}

func TestNewHandler(t *testing.T) {
	convey.Convey("Given a handler wired from the default configuration", t, func() {
		ctx := context.Background()
		cfg := config.New()
		cfg.AllowedOrigin = "https://squad.example"
		svc, closeFn := app.FromConfig(ctx, cfg, logger.Nop())
		defer func() { _ = closeFn() }()
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		h := newHandler(ctx, cfg, svc, logger.Nop())

		convey.Convey("When requesting health", func() {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

			convey.Convey("Then the API routes and middleware are mounted", func() {
				var body map[string]any
				convey.So(json.Unmarshal(w.Body.Bytes(), &body), convey.ShouldBeNil)
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(body["api_key"], convey.ShouldEqual, "missing")
				convey.So(w.Header().Get("Access-Control-Allow-Origin"), convey.ShouldEqual, "https://squad.example")
				convey.So(w.Header().Get("X-Request-ID"), convey.ShouldNotBeEmpty)
			})
		})

		convey.Convey("When requesting the API docs", func() {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/openapi.yaml", http.NoBody))

			convey.Convey("Then the swagger routes are mounted", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			})
		})

		convey.Convey("When a clan route is hit without a key", func() {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/clan/%23RYPUQ8CY/review", http.NoBody))

			convey.Convey("Then the missing key is reported", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusInternalServerError)
				convey.So(w.Body.String(), convey.ShouldContainSubstring, "API key not configured")
			})
		})
	})
}
