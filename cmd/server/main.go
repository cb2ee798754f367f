package main

import (
	"github.com/gin-gonic/gin"

	"github.com/arnavshah/callup-allocator-go/pkg/config"
	"github.com/arnavshah/callup-allocator-go/pkg/database"
	"github.com/arnavshah/callup-allocator-go/pkg/handlers"
	"github.com/arnavshah/callup-allocator-go/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.GetLogger().WithError(err).Fatal("could not load config")
	}
	log := logger.InitLogger(cfg.LogLevel, cfg.Development)
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("invalid config")
	}

	gin.SetMode(cfg.GinMode)

	db, err := database.InitDB(cfg)
	if err != nil {
		log.WithError(err).Fatal("could not open database")
	}

	h := handlers.New(db, cfg)
	if err := h.Auth.EnsureAdminExists(db, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.WithError(err).Error("could not create default admin")
	}

	r := handlers.NewRouter(h, "Call-up Allocator API")

	log.WithField("port", cfg.Port).Info("Server starting")
	if err := r.Run(":" + cfg.Port); err != nil {
		log.WithError(err).Fatal("could not run server")
	}
}
