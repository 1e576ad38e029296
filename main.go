package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"

	"pine/auth"
	"pine/cache"
	"pine/common"
	"pine/database"
	"pine/diary"
	"pine/email"
	"pine/store"
)

func main() {
	cfg, err := common.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	db := common.ConnectDb(cfg)
	if db == nil {
		log.Fatal("Failed to connect to database")
	}

	if err := database.RunMigrations(db); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	st := store.New(db)
	st.PasswordCost = cfg.BcryptCost

	tokens := auth.NewTokenService(st, cfg.Tokens)
	mailer := email.NewEmailService(cfg.SMTP)
	if !mailer.Enabled() {
		log.Println("SMTP_HOST not set, verification codes will only be logged")
	}
	pageCache := cache.New(cfg.Cache.Dir, cfg.Cache.TTL)

	router := gin.Default()
	router.Use(common.CORSMiddleware(cfg.CORSOrigins))
	router.Use(auth.SessionBridge())

	authModule := auth.NewAuthModule(tokens, st, mailer, pageCache, cfg.Cookies)
	authModule.RegisterRoutes(router)

	diaryModule := diary.NewDiaryModule(st, pageCache)
	diaryModule.RegisterRoutes(router, tokens.RequireAuth())

	go prune(tokens, pageCache, cfg.PruneInterval)

	log.Printf("Starting server on port %s...", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

// prune drops expired revocation records and stale cache files.
func prune(tokens *auth.TokenService, pageCache *cache.Store, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for range ticker.C {
		if n, err := tokens.PruneRevoked(context.Background()); err != nil {
			log.Println("pruning revoked tokens failed:", err)
		} else if n > 0 {
			log.Printf("pruned %d revoked tokens", n)
		}

		if n, err := pageCache.ClearOld(); err != nil {
			log.Println("clearing cache failed:", err)
		} else if n > 0 {
			log.Printf("removed %d stale cache files", n)
		}
	}
}
