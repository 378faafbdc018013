package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/okian/rcscore/internal/config"
	"github.com/okian/rcscore/pkg/logger"
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
			_ = os.Setenv("RCS_ADDR", ":8080")
			_ = os.Setenv("RCS_ERROR_WORKERS", "4")
			defer func() {
				_ = os.Unsetenv("RCS_ADDR")
				_ = os.Unsetenv("RCS_ERROR_WORKERS")
			}()

			convey.Convey("Then configuration should be loadable", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.ErrorWorkers, convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When wiring the HTTP handler", func() {
			cfg := config.New()
			h := newHandler(cfg, newService(cfg, logger.Named("test")))

			convey.Convey("Then API routes should be served", func() {
				req := httptest.NewRequest(http.MethodGet, "/v1/challenges/0/pools?predictors=1", nil)
				w := httptest.NewRecorder()
				h.ServeHTTP(w, req)
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Body.String(), convey.ShouldContainSubstring, `"challenge":"40"`)
			})

			convey.Convey("And docs routes should be served", func() {
				req := httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil)
				w := httptest.NewRecorder()
				h.ServeHTTP(w, req)
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(strings.HasPrefix(w.Body.String(), "openapi:"), convey.ShouldBeTrue)
			})

			convey.Convey("And metrics should be exposed", func() {
				updateSystemMetrics()
				req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
				w := httptest.NewRecorder()
				h.ServeHTTP(w, req)
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Body.String(), convey.ShouldContainSubstring, "rcscore_scoring_system_goroutine_count")
			})
		})
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given main application components", t, func() {
		convey.Convey("When the system metrics updater runs until its context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			convey.Convey("Then it should return without panicking", func() {
				convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
			})
		})
	})
}

func TestMainApplicationErrorHandling(t *testing.T) {
	convey.Convey("Given main application error handling", t, func() {
		convey.Convey("When testing invalid configuration", func() {
			_ = os.Setenv("RCS_ADDR", "")
			defer func() { _ = os.Unsetenv("RCS_ADDR") }()

			convey.Convey("Then configuration loading should fail", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}
