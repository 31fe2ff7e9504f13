package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"
)

// CreateServer creates and configures an HTTP server with the specified address and handler.
// It sets reasonable timeout values for production use.
func CreateServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// StartHub runs the hub loop in its own goroutine.
func StartHub(hub *Hub) {
	go hub.Run()
	hub.log.Info("Hub started and ready to manage WebSocket connections")
}

// StartServer listens with TLS when the certificate pair loads and with plain
// HTTP otherwise. It blocks until the server stops.
func StartServer(log *slog.Logger, server *http.Server, cfg TLSConfig) error {
	cert, err := loadCertificate(cfg)
	if err == nil {
		server.TLSConfig = &tls.Config{Certificates: []tls.Certificate{cert}, MinVersion: tls.VersionTLS12}
		log.Info("HTTPS server listening", "addr", server.Addr)
		return server.ListenAndServeTLS("", "")
	}

	if cfg.Requested || !errors.Is(err, errNoCertificate) {
		log.Warn("HTTPS unavailable, falling back to HTTP",
			"cert", cfg.CertPath, "key", cfg.KeyPath, "error", err)
	}
	log.Info("HTTP server listening", "addr", server.Addr)
	return server.ListenAndServe()
}

var errNoCertificate = errors.New("certificate files not found")

func loadCertificate(cfg TLSConfig) (tls.Certificate, error) {
	if !fileExists(cfg.CertPath) || !fileExists(cfg.KeyPath) {
		return tls.Certificate{}, errNoCertificate
	}
	cert, err := tls.LoadX509KeyPair(cfg.CertPath, cfg.KeyPath)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("load certificate: %w", err)
	}
	return cert, nil
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// ShutdownServer gracefully shuts down the HTTP server without interrupting active connections.
// It waits for active connections to close or until the timeout is reached.
func ShutdownServer(log *slog.Logger, server *http.Server, timeout time.Duration) error {
	log.Info("Shutting down HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("HTTP server shutdown error", "error", err)
		return err
	}

	log.Info("HTTP server shutdown completed")
	return nil
}
