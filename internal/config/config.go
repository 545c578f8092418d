package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	ListenAddr string

	AccountsFile string

	// Session snapshot persistence. StoreMode is "file" or "postgres";
	// postgres falls back to file when unreachable.
	StoreMode            string
	DatabaseURL          string
	SessionDir           string
	SessionEncryptionKey string

	AdminUsername string
	AdminPassword string
	JWTSecret     string

	GatewayBaseURL string
	GatewayTimeout time.Duration

	// Pacing. MinActionSpacing is the hard floor between two remote calls
	// for one account; every CooldownEvery-th call adds a long pause.
	MinActionSpacing time.Duration
	ActionJitterMax  time.Duration
	CooldownEvery    int
	CooldownMin      time.Duration
	CooldownMax      time.Duration
	LoginDelayMin    time.Duration
	LoginDelayMax    time.Duration
	VerifyDelay      time.Duration

	RewriteProvider string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	OpenAIModel     string

	LogBufferSize     int
	LogWebhookURL     string
	LogWebhookTimeout time.Duration

	TelegramBotToken string
	TelegramChatID   string
}

func Load() Config {
	return Config{
		ListenAddr:           getEnv("LISTEN_ADDR", ":17080"),
		AccountsFile:         getEnv("ACCOUNTS_FILE", "accounts.json"),
		StoreMode:            getEnv("STORE_MODE", "file"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		SessionDir:           getEnv("SESSION_DIR", ".sessions"),
		SessionEncryptionKey: getEnv("SESSION_ENCRYPTION_KEY", ""),
		AdminUsername:        getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:        getEnv("ADMIN_PASSWORD", "change-me"),
		JWTSecret:            getEnv("JWT_SECRET", "change-this-secret"),
		GatewayBaseURL:       getEnv("GATEWAY_BASE_URL", ""),
		GatewayTimeout:       getDuration("GATEWAY_TIMEOUT", 15*time.Second),
		MinActionSpacing:     getDuration("MIN_ACTION_SPACING", 5*time.Second),
		ActionJitterMax:      getDuration("ACTION_JITTER_MAX", 2*time.Second),
		CooldownEvery:        getInt("COOLDOWN_EVERY", 10),
		CooldownMin:          getDuration("COOLDOWN_MIN", 20*time.Second),
		CooldownMax:          getDuration("COOLDOWN_MAX", 60*time.Second),
		LoginDelayMin:        getDuration("LOGIN_DELAY_MIN", 3*time.Second),
		LoginDelayMax:        getDuration("LOGIN_DELAY_MAX", 7*time.Second),
		VerifyDelay:          getDuration("VERIFY_DELAY", 2*time.Second),
		RewriteProvider:      getEnv("REWRITE_PROVIDER", "suffix"),
		OpenAIAPIKey:         getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:        getEnv("OPENAI_BASE_URL", "https://api.openai.com"),
		OpenAIModel:          getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		LogBufferSize:        getInt("LOG_BUFFER_SIZE", 500),
		LogWebhookURL:        getEnv("LOG_WEBHOOK_URL", ""),
		LogWebhookTimeout:    getDuration("LOG_WEBHOOK_TIMEOUT", 5*time.Second),
		TelegramBotToken:     getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:       getEnv("TELEGRAM_CHAT_ID", ""),
	}
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
