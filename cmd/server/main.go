package main

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"hrms-backend/internal/config"
	"hrms-backend/internal/db"
	"hrms-backend/internal/routes"
	"hrms-backend/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New("production")
		fallback.Fatal().Err(err).Msg("config error")
	}

	log := logger.New(cfg.AppEnv)

	database, err := db.Open(cfg.DbDsn)
	if err != nil {
		log.Fatal().Err(err).Msg("db error")
	}

	if cfg.SuperAdminMobile != "" {
		if err := db.BootstrapSuperAdmin(database, cfg.SuperAdminMobile); err != nil {
			log.Fatal().Err(err).Msg("super admin bootstrap failed")
		}
	}

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	routes.Register(router, database, cfg, log)

	log.Info().Str("addr", cfg.Addr).Msg("server listening")
	if err := router.Run(cfg.Addr); err != nil {
		log.Error().Err(err).Msg("server error")
		os.Exit(1)
	}
}
