package config

import "strings"

func normalize(cfg *AppConfig) {
	cfg.Env = normalizeEnv(cfg.Env)
	cfg.SiteURL = strings.TrimRight(strings.TrimSpace(cfg.SiteURL), "/")
	cfg.AllowedOrigins = normalizeOrigins(cfg.AllowedOrigins)

	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	if cfg.Database.Driver == "postgresql" || cfg.Database.Driver == "pg" {
		cfg.Database.Driver = DriverPostgres
	}
	cfg.Database.DSN = strings.TrimSpace(cfg.Database.DSN)

	cfg.Storage.Driver = strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	cfg.Storage.Bucket = strings.TrimSpace(cfg.Storage.Bucket)
	cfg.Storage.Endpoint = strings.TrimRight(strings.TrimSpace(cfg.Storage.Endpoint), "/")
	cfg.Storage.PublicBaseURL = strings.TrimRight(strings.TrimSpace(cfg.Storage.PublicBaseURL), "/")
	cfg.Storage.AccessKeyID = strings.TrimSpace(cfg.Storage.AccessKeyID)
	cfg.Storage.SecretAccessKey = strings.TrimSpace(cfg.Storage.SecretAccessKey)

	cfg.AI.Provider = normalizeProvider(cfg.AI.Provider)
	cfg.AI.APIKey = strings.TrimSpace(cfg.AI.APIKey)
	cfg.AI.Model = strings.TrimSpace(cfg.AI.Model)

	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
}

func normalizeOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if v := strings.TrimSpace(o); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func normalizeEnv(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "prod", "production":
		return "production"
	default:
		return "development"
	}
}

func normalizeProvider(raw string) string {
	t := strings.ToLower(strings.TrimSpace(raw))
	t = strings.ReplaceAll(t, "_", "-")
	if t == "openaicompatible" {
		t = AIOpenAICompatible
	}
	return t
}
