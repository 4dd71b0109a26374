package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/chasecyang/shotrio-engine/internal/preview"
)

func main() {
	_ = godotenv.Load()
	ctx := context.Background()

	port := getenv("PORT", "4002")
	redisURL := getenv("REDIS_URL", "redis://redis:6379")
	allowedOrigin := getenv("CORS_ALLOWED_ORIGIN", "")

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Fatalf("preview-service: invalid REDIS_URL: %v", err)
	}
	rdb := redis.NewClient(opt)
	defer rdb.Close()

	hub := preview.NewHub()
	srv := preview.NewServer(ctx, hub, rdb, allowedOrigin)

	go hub.Run(ctx)
	go srv.RunRedisSubscriber()

	// No Timeout middleware: /ws connections are held open for the whole
	// editing session.
	r := srv.Router(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
	)

	log.Printf("preview-service listening on :%s", port)
	if err := http.ListenAndServe(":"+port, r); err != nil {
		log.Fatalf("preview-service: %v", err)
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
