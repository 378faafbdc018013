package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsMiddleware(t *testing.T) {
	Convey("Given a router with the metrics middleware", t, func() {
		var seen string
		r := chi.NewRouter()
		r.Use(MetricsMiddleware)
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req)
				seen = routePattern(req)
			})
		})
		r.Get("/things/{id}", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		})

		Convey("When a routed request completes", func() {
			req := httptest.NewRequest(http.MethodGet, "/things/42", nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			Convey("Then the route pattern should label it", func() {
				So(w.Code, ShouldEqual, http.StatusTeapot)
				So(seen, ShouldEqual, "/things/{id}")
			})
		})
	})

	Convey("Given a request outside any router", t, func() {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)

		Convey("Then the pattern should be the shared unmatched label", func() {
			So(routePattern(req), ShouldEqual, "unmatched")
		})
	})
}

func TestResponseWriter(t *testing.T) {
	Convey("Given a wrapped response writer", t, func() {
		rec := httptest.NewRecorder()
		rw := &responseWriter{ResponseWriter: rec, statusCode: http.StatusOK}

		Convey("When the header is written twice", func() {
			rw.WriteHeader(http.StatusBadRequest)
			rw.WriteHeader(http.StatusInternalServerError)

			Convey("Then the first status should be kept", func() {
				So(rw.statusCode, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the body is written without a header", func() {
			_, err := rw.Write([]byte("ok"))

			Convey("Then the status should stay 200", func() {
				So(err, ShouldBeNil)
				So(rw.statusCode, ShouldEqual, http.StatusOK)
			})
		})
	})
}

func TestErrorClassification(t *testing.T) {
	Convey("Given HTTP status codes", t, func() {
		So(getErrorType(500), ShouldEqual, "server_error")
		So(getErrorType(429), ShouldEqual, "rate_limit")
		So(getErrorType(413), ShouldEqual, "too_large")
		So(getErrorType(404), ShouldEqual, "not_found")
		So(getErrorType(400), ShouldEqual, "client_error")
		So(getErrorType(200), ShouldEqual, "unknown")
		So(getErrorSeverity(503), ShouldEqual, "high")
		So(getErrorSeverity(404), ShouldEqual, "medium")
		So(getErrorSeverity(200), ShouldEqual, "low")
	})
}
