package config

import "os"

// Config holds process configuration, all sourced from the environment.
type Config struct {
	MongoURI    string
	MongoDB     string
	RedisAddr   string
	AMQPURL     string
	HTTPPort    string
	JWTSecret   string
	OrgID       string
	OrgUsername string
	OrgPassword string
}

// Load reads configuration from the environment with local-dev defaults.
func Load() *Config {
	return &Config{
		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:     getEnv("MONGO_DB", "canvassdb"),
		RedisAddr:   getEnv("REDIS_ADDR", "localhost:6379"),
		AMQPURL:     os.Getenv("AMQP_URL"),
		HTTPPort:    getEnv("PORT", "8080"),
		JWTSecret:   getEnv("JWT_SECRET", "super-secret-key-change-in-production"),
		OrgID:       getEnv("ORG_ID", "org_default"),
		OrgUsername: getEnv("ORG_USERNAME", "admin"),
		OrgPassword: getEnv("ORG_PASSWORD", "password123"),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
