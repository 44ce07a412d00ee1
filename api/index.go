package handler

import (
	"net/http"

	"github.com/wadjakorntonsri/clicklink/pkg/adapters/handler"
	"github.com/wadjakorntonsri/clicklink/pkg/adapters/repository"
	"github.com/wadjakorntonsri/clicklink/pkg/config"
	"github.com/wadjakorntonsri/clicklink/pkg/core/services"
)

var mux http.Handler

func init() {
	cfg := config.Load()

	// Serverless filesystems are ephemeral; DATABASE_URL should point at Turso or Postgres
	repo, err := repository.Open(cfg.DatabaseURL)
	if err != nil {
		panic(err)
	}

	service := services.NewLinkService(repo)
	mux = handler.NewRouter(cfg, service)
}

// Handler is the serverless entrypoint
func Handler(w http.ResponseWriter, r *http.Request) {
	mux.ServeHTTP(w, r)
}
