package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/talkbase/convstore/config"
	"github.com/talkbase/convstore/internal/api/handlers"
	"github.com/talkbase/convstore/internal/api/middleware"
	"github.com/talkbase/convstore/internal/api/routes"
	"github.com/talkbase/convstore/internal/conversation"
	"github.com/talkbase/convstore/internal/logger"
	"github.com/talkbase/convstore/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg := config.FromEnv()
	l := logger.New()

	rdb, err := config.NewRedisClient(context.Background(), cfg)
	if err != nil {
		log.Fatalf("redis init error: %v", err)
	}
	defer rdb.Close()
	l.WithField("addr", cfg.RedisAddr).Info("redis connected")

	svc := conversation.New(store.NewRedis(rdb), conversation.Options{
		KeyVersion:      cfg.KeyVersion,
		ConversationTTL: cfg.ConversationTTL,
		ModelTTL:        cfg.ModelTTL,
		TTLRefresh:      cfg.TTLRefresh,
	})

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(l))

	routes.RegisterRoutes(r, routes.Deps{
		Conversation: handlers.NewConversationHandler(svc),
		JWTSecret:    cfg.JWTSecret,
	})

	l.WithField("port", cfg.HTTPPort).Info("listening")
	if err := r.Run(":" + cfg.HTTPPort); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
