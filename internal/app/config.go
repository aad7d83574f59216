package app

import (
	"time"

	"github.com/steelbound/forgetrace-backend/internal/platform/envutil"
)

type Config struct {
	Port         string
	JWTSecretKey string
	TokenTTL     time.Duration
	RedisAddr    string
	RedisDB      int
}

func LoadConfig() Config {
	tokenTTLSeconds := envutil.Int("TOKEN_TTL", 3600)
	return Config{
		Port:         envutil.String("PORT", "8080"),
		JWTSecretKey: envutil.String("JWT_SECRET_KEY", "defaultsecret"),
		TokenTTL:     time.Duration(tokenTTLSeconds) * time.Second,
		RedisAddr:    envutil.String("REDIS_ADDR", ""),
		RedisDB:      envutil.Int("REDIS_DB", 0),
	}
}
