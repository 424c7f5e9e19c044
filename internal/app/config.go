package app

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lumehq/lume-backend/internal/platform/envutil"
	"github.com/lumehq/lume-backend/internal/platform/logger"
	"github.com/lumehq/lume-backend/internal/services"
)

type Config struct {
	Port             string
	Environment      string
	Version          string
	JWTSecretKey     string
	InternalAPIToken string
	Blend            services.BlendConfig
}

// LoadConfig reads env plus the optional policy YAML named by
// POLICY_CONFIG_PATH. Missing or broken config falls back to defaults
// rather than refusing to boot.
func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		Port:             envutil.String("PORT", "8080"),
		Environment:      envutil.String("APP_ENV", "development"),
		Version:          envutil.String("APP_VERSION", "dev"),
		JWTSecretKey:     envutil.String("JWT_SECRET_KEY", "defaultsecret"),
		InternalAPIToken: envutil.String("INTERNAL_API_TOKEN", ""),
		Blend:            loadBlendConfig(log),
	}
	if cfg.JWTSecretKey == "defaultsecret" {
		log.Warn("JWT_SECRET_KEY not set, using insecure default")
	}
	return cfg
}

func loadBlendConfig(log *logger.Logger) services.BlendConfig {
	blend := services.DefaultBlendConfig()
	path := envutil.String("POLICY_CONFIG_PATH", "")
	if path == "" {
		return blend
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		log.Warn("policy config unreadable, using defaults", "path", path, "error", err)
		return services.DefaultBlendConfig()
	}
	if err := yaml.Unmarshal(raw, &blend); err != nil {
		log.Warn("policy config invalid, using defaults", "path", path, "error", err)
		return services.DefaultBlendConfig()
	}
	if blend.FireThreshold <= 0 || blend.DedupWindowMinutes <= 0 {
		log.Warn("policy config out of range, using defaults", "path", path)
		return services.DefaultBlendConfig()
	}
	log.Info("policy config loaded", "path", path, "fire_threshold", blend.FireThreshold)
	return blend
}
