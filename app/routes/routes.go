package routes

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"feedsync/app/controllers"
	"feedsync/app/middleware"
	"feedsync/app/services"

	"github.com/gorilla/mux"
)

// SetupRoutes defines the feed API and returns a router.
func SetupRoutes(feed *services.FeedService, logger *slog.Logger) *mux.Router {
	if logger == nil {
		logger = slog.Default()
	}
	router := mux.NewRouter()

	// Apply global middleware
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recoverer(logger))
	router.Use(middleware.ContentTypeJSON)

	feedController := controllers.NewFeedController(feed, logger)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/feed", feedController.Index).Methods("GET")
	api.HandleFunc("/feed/reload", feedController.Reload).Methods("POST")

	posts := api.PathPrefix("/posts").Subrouter()
	posts.HandleFunc("", feedController.Create).Methods("POST")
	posts.HandleFunc("/{id:-?[0-9]+}", feedController.Edit).Methods("PUT")
	posts.HandleFunc("/{id:-?[0-9]+}", feedController.Delete).Methods("DELETE")
	posts.HandleFunc("/{id:-?[0-9]+}/like", feedController.Like).Methods("POST")
	posts.HandleFunc("/{id:-?[0-9]+}/comments", feedController.Comment).Methods("POST")

	router.NotFoundHandler = http.HandlerFunc(notFound)
	return router
}

func notFound(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "Not found"})
		return
	}
	http.NotFound(w, r)
}
