package gateway

import (
	"errors"
	"os"
	"strconv"
)

type Config struct {
	Port          string
	StudioURL     string
	PreviewURL    string
	AllowedOrigin string

	JWTSecret []byte

	// PublicRPS caps unauthenticated traffic per client IP; AuthedRPS caps
	// authenticated traffic per user.
	PublicRPS int
	AuthedRPS int

	// AssetBodyLimit caps asset registration payloads, in bytes.
	AssetBodyLimit int64
}

func LoadConfig() (Config, error) {
	cfg := Config{
		Port:           getenv("PORT", "8080"),
		StudioURL:      getenv("TIMELINE_SERVICE_URL", "http://timeline-service:4001"),
		PreviewURL:     getenv("PREVIEW_SERVICE_URL", "http://preview-service:4002"),
		AllowedOrigin:  getenv("CORS_ALLOWED_ORIGIN", "*"),
		JWTSecret:      []byte(getenv("JWT_SECRET", "")),
		PublicRPS:      getenvInt("RATE_LIMIT_RPS", 20),
		AuthedRPS:      getenvInt("AUTHED_RPS", 30),
		AssetBodyLimit: int64(getenvInt("ASSET_BODY_LIMIT", 16*1024)),
	}

	if len(cfg.JWTSecret) == 0 {
		return Config{}, errors.New("gateway: JWT_SECRET is empty, cannot start without JWT validation")
	}
	return cfg, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return def
	}
	return v
}
