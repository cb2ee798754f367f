package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arnavshah/callup-allocator-go/pkg/config"
	"github.com/arnavshah/callup-allocator-go/pkg/database"
	"github.com/arnavshah/callup-allocator-go/pkg/handlers"
	"github.com/arnavshah/callup-allocator-go/pkg/logger"
)

var r *gin.Engine

func init() {
	cfg, err := config.Load()
	if err != nil {
		logger.GetLogger().WithError(err).Fatal("could not load config")
	}
	log := logger.InitLogger(cfg.LogLevel, false)
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("invalid config")
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		log.WithError(err).Fatal("could not open database")
	}

	h := handlers.New(db, cfg)
	if err := h.Auth.EnsureAdminExists(db, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.WithError(err).Error("could not create default admin")
	}

	gin.SetMode(gin.ReleaseMode)
	r = handlers.NewRouter(h, "Call-up Allocator API (serverless)")
}

// Handler is the entry point for Vercel Go Runtime
func Handler(w http.ResponseWriter, req *http.Request) {
	r.ServeHTTP(w, req)
}
