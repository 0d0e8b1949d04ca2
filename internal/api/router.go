package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/micro-nova/pico-emu/internal/auth"
	"github.com/micro-nova/pico-emu/internal/identity"
)

// NewRouter creates and returns the control API router.
func NewRouter(board Emulator, authSvc *auth.Service, bus EventBus, info func() identity.Info) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(corsMiddleware)
	r.Use(middleware.CleanPath)

	h := &Handlers{board: board, events: bus, info: info}

	r.Group(func(r chi.Router) {
		if authSvc != nil {
			r.Use(authSvc.Middleware)
		}

		r.Get("/api/info", h.getInfo)

		// Pins and ADC overrides
		r.Get("/api/pins", h.getPins)
		r.Put("/api/pins/{id}", h.setPin)
		r.Put("/api/adc/{pin}", h.setADC)
		r.Delete("/api/adc/{pin}", h.clearADC)

		// I2C
		r.Put("/api/i2c/auto_respond", h.setAutoRespond)
		r.Put("/api/i2c/{bus}/devices", h.setI2CDevices)
		r.Post("/api/i2c/{bus}/devices/{addr}", h.registerI2CDevice)
		r.Put("/api/i2c/{bus}/{addr}/response", h.setI2CResponse)

		// UART
		r.Post("/api/uart/{id}/rx", h.injectUART)

		r.Post("/api/reset", h.reset)

		// SSE
		r.Get("/api/subscribe", h.sseEvents)
	})

	return r
}

// requestLogger logs each request through slog. chi's middleware.Logger
// writes to stdout, which carries the event stream.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		slog.Debug("api: request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"dur", time.Since(start),
		)
	})
}

// corsMiddleware adds permissive CORS headers so a browser-hosted visualizer
// can reach the API.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+auth.KeyParam)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
