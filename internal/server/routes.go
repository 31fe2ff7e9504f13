package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Routes collects the handlers mounted next to the websocket endpoint. Nil
// handlers are not mounted.
type Routes struct {
	Upload      http.Handler
	ImageSearch http.Handler
	UploadDir   string
	PublicDir   string
	IndexPage   string
}

// SetupRoutes configures and returns an HTTP ServeMux with all application routes.
func SetupRoutes(hub *Hub, routes Routes) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", HealthHandler)
	mux.Handle("/ws", WebSocketHandler(hub))
	mux.Handle("/metrics", promhttp.Handler())

	if routes.Upload != nil {
		mux.Handle("POST /upload-image", routes.Upload)
	}
	if routes.ImageSearch != nil {
		mux.Handle("GET /search-images", routes.ImageSearch)
	}
	if routes.UploadDir != "" {
		mux.Handle("/uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(routes.UploadDir))))
	}
	if routes.PublicDir != "" {
		mux.Handle("/", StaticHandler(routes.PublicDir, routes.IndexPage))
	} else {
		mux.HandleFunc("/", HealthHandler)
	}
	return mux
}
