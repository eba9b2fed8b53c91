// Copyright (c) 2026 Voxdesk. All rights reserved.

package api

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// SPAHandler serves the built single-page app.
//
// Real files (hashed assets, favicon) are served as-is; every other path gets
// index.html so the client router can take over. The session gate has already
// run by the time a request reaches this handler.
type SPAHandler struct {
	distPath string
	fs       http.Handler
	log      *slog.Logger
}

// NewSPAHandler creates a handler rooted at distPath.
func NewSPAHandler(distPath string, log *slog.Logger) *SPAHandler {
	return &SPAHandler{
		distPath: distPath,
		fs:       http.FileServer(http.Dir(distPath)),
		log:      log,
	}
}

// ServeHTTP implements [http.Handler].
func (handler *SPAHandler) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	requested := filepath.Join(handler.distPath, filepath.Clean("/"+request.URL.Path))

	info, err := os.Stat(requested)
	if err == nil && !info.IsDir() {
		// Hashed build assets are immutable and safe to cache hard.
		if strings.HasPrefix(request.URL.Path, "/assets/") {
			writer.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		}
		handler.fs.ServeHTTP(writer, request)
		return
	}

	index := filepath.Join(handler.distPath, "index.html")
	if _, err := os.Stat(index); err != nil {
		handler.log.Error("spa_index_missing", slog.String("path", index))
		http.Error(writer, "application bundle not found", http.StatusServiceUnavailable)
		return
	}

	// The shell must never be cached: a stale shell would reference
	// assets that no longer exist after a deploy.
	writer.Header().Set("Cache-Control", "no-store")
	http.ServeFile(writer, request, index)
}
