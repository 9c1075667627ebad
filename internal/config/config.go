package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the client core.
type Config struct {
	App      AppConfig
	AuthAPI  AuthAPIConfig
	Redis    RedisConfig
	OAuth    OAuthConfig
	STT      STTConfig
	Callback CallbackConfig
	Logger   LoggerConfig
}

// AppConfig controls environment-level behavior.
type AppConfig struct {
	Name    string
	Env     string
	Version string
}

// AllowDevTokens reports whether unsigned development tokens may be
// accepted. Production deployments must reject them.
func (a AppConfig) AllowDevTokens() bool {
	return a.Env != "production"
}

// AuthAPIConfig points at the identity/session REST backend.
type AuthAPIConfig struct {
	BaseURL        string
	TimeoutSeconds int
}

// Timeout returns the request timeout duration.
func (a AuthAPIConfig) Timeout() time.Duration {
	if a.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// RedisConfig holds connection values for the durable credential store.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// OAuthProviderConfig holds one provider's client registration.
type OAuthProviderConfig struct {
	ClientID    string
	RedirectURI string
}

// OAuthConfig holds per-provider registrations.
type OAuthConfig struct {
	Kakao  OAuthProviderConfig
	Naver  OAuthProviderConfig
	Google OAuthProviderConfig
}

// STTConfig parameterizes the streaming transcription session.
type STTConfig struct {
	URL                      string
	SampleRate               int
	Channels                 int
	FrameSamples             int
	HandshakeTimeoutSeconds  int
	ReconnectMaxAttempts     int
	ReconnectBaseDelayMillis int
	ReconnectMaxDelayMillis  int
}

// HandshakeTimeout returns the connection handshake deadline.
func (s STTConfig) HandshakeTimeout() time.Duration {
	if s.HandshakeTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(s.HandshakeTimeoutSeconds) * time.Second
}

// CallbackConfig controls the loopback OAuth redirect listener.
type CallbackConfig struct {
	Host string
	Port string
}

// Addr returns the listener bind address.
func (c CallbackConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// Load reads configuration from environment variables, applying defaults
// where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:    getEnv("APP_NAME", "care-session"),
			Env:     getEnv("APP_ENV", "development"),
			Version: getEnv("APP_VERSION", "dev"),
		},
		AuthAPI: AuthAPIConfig{
			BaseURL:        getEnv("AUTH_API_URL", "http://127.0.0.1:8080"),
			TimeoutSeconds: getEnvAsInt("AUTH_API_TIMEOUT_SECONDS", 10),
		},
		Redis: RedisConfig{
			Addr:      getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:  os.Getenv("REDIS_PASSWORD"),
			DB:        redisDB,
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "care_session"),
		},
		OAuth: OAuthConfig{
			Kakao: OAuthProviderConfig{
				ClientID:    os.Getenv("KAKAO_CLIENT_ID"),
				RedirectURI: os.Getenv("KAKAO_REDIRECT_URI"),
			},
			Naver: OAuthProviderConfig{
				ClientID:    os.Getenv("NAVER_CLIENT_ID"),
				RedirectURI: os.Getenv("NAVER_REDIRECT_URI"),
			},
			Google: OAuthProviderConfig{
				ClientID:    os.Getenv("GOOGLE_CLIENT_ID"),
				RedirectURI: os.Getenv("GOOGLE_REDIRECT_URI"),
			},
		},
		STT: STTConfig{
			URL:                      getEnv("STT_WS_URL", "ws://127.0.0.1:9090/socket"),
			SampleRate:               getEnvAsInt("STT_SAMPLE_RATE", 16000),
			Channels:                 getEnvAsInt("STT_CHANNELS", 1),
			FrameSamples:             getEnvAsInt("STT_FRAME_SAMPLES", 8000),
			HandshakeTimeoutSeconds:  getEnvAsInt("STT_HANDSHAKE_TIMEOUT_SECONDS", 10),
			ReconnectMaxAttempts:     getEnvAsInt("STT_RECONNECT_MAX_ATTEMPTS", 5),
			ReconnectBaseDelayMillis: getEnvAsInt("STT_RECONNECT_BASE_DELAY_MS", 1000),
			ReconnectMaxDelayMillis:  getEnvAsInt("STT_RECONNECT_MAX_DELAY_MS", 10000),
		},
		Callback: CallbackConfig{
			Host: getEnv("CALLBACK_HOST", "127.0.0.1"),
			Port: getEnv("CALLBACK_PORT", "3000"),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}
