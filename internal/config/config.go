// Package config provides configuration for the legal assistant server.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/gommon/log"
)

// DefaultSystemPrompt primes every new conversation.
const DefaultSystemPrompt = "您正在为一位农民工提供法律帮助。在回答任何问题之前,请确保首先请求用户提供所有必要的具体信息,以便提供精准、个性化的法律建议。" +
	"例如,如果用户遇到工伤问题,请询问以下详细信息:工伤发生的时间、地点、受伤部位、医疗费用以及雇主信息等。" +
	"如果是工资争议,请询问工资支付的具体情况、合同是否存在以及任何相关证据。请避免给出一般性或模糊的建议,确保提供与用户情况完全相关的指导。" +
	"请在开始提供答案时,结合用户提供的具体信息,给出详细的操作步骤,并尽可能提供实际的联系方式和地点等信息。确保每次提供的答案都是用户可以立刻行动并且符合他们法律需求的。"

// Config holds the server configuration.
type Config struct {
	// Server settings
	HTTPPort int

	// Storage
	StoreDriver   string
	DatabaseURL   string
	MongoDatabase string

	// Completion provider
	LLMBaseURL string
	LLMAPIKey  string
	LLMModel   string
	LLMTimeout time.Duration

	// Relay
	SystemPrompt    string
	MaxMessageRunes int
	RollbackTimeout time.Duration

	// Auth
	JWTSecret string
	JWTTTL    time.Duration

	// WebSocket settings
	WSPingInterval   time.Duration
	WSWriteTimeout   time.Duration
	WSReadTimeout    time.Duration
	WSMaxMessageSize int64

	// Logging
	LogLevel string
}

// Load loads configuration from the environment, after reading an optional .env file.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debugf("no .env file loaded: %v", err)
	}

	return &Config{
		HTTPPort:         getEnvInt("HTTP_PORT", 8080),
		StoreDriver:      getEnv("STORE_DRIVER", "sqlite"),
		DatabaseURL:      getEnv("DATABASE_URL", "file:lawai.db?cache=shared&mode=rwc"),
		MongoDatabase:    getEnv("MONGO_DATABASE", "lawai"),
		LLMBaseURL:       getEnv("LLM_BASE_URL", "https://open.bigmodel.cn/api/paas/v4"),
		LLMAPIKey:        getEnv("LLM_API_KEY", ""),
		LLMModel:         getEnv("LLM_MODEL", "glm-4-flashx"),
		LLMTimeout:       getEnvDuration("LLM_TIMEOUT_MS", 120000),
		SystemPrompt:     getEnv("SYSTEM_PROMPT", DefaultSystemPrompt),
		MaxMessageRunes:  getEnvInt("MAX_MESSAGE_RUNES", 4000),
		RollbackTimeout:  getEnvDuration("ROLLBACK_TIMEOUT_MS", 5000),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTTTL:           getEnvDuration("JWT_TTL_MS", 7*24*3600*1000),
		WSPingInterval:   getEnvDuration("WS_PING_INTERVAL_MS", 30000),
		WSWriteTimeout:   getEnvDuration("WS_WRITE_TIMEOUT_MS", 10000),
		WSReadTimeout:    getEnvDuration("WS_READ_TIMEOUT_MS", 60000),
		WSMaxMessageSize: int64(getEnvInt("WS_MAX_MESSAGE_SIZE", 65536)),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
	}
}

// Level maps LogLevel to a gommon log level.
func (c *Config) Level() log.Lvl {
	switch c.LogLevel {
	case "debug":
		return log.DEBUG
	case "warn":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	default:
		return log.INFO
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultMs int) time.Duration {
	return time.Duration(getEnvInt(key, defaultMs)) * time.Millisecond
}
