package main

import (
	"os"
	"strconv"

	"github.com/alexice92/captcha-tgbot-monteanimals/gate"
)

const envBotToken = "BOT_TOKEN"

const envDataPath = "DATA_PATH"
const defDataPath = "./.data"

const envDenylistBackend = "DENYLIST_BACKEND"
const defDenylistBackend = "file"

const envRedisAddr = "REDIS_ADDR"
const defRedisAddr = "localhost:6379"

const envRedisPassword = "REDIS_PASSWORD"

const envChallengeTimeoutSeconds = "CHALLENGE_TIMEOUT_SECONDS"
const envMessageTTLSeconds = "MESSAGE_TTL_SECONDS"

// Env is environment data for the standalone bot.
type Env struct {
	// BotToken is the Telegram Bot API token.
	BotToken string

	// DataPath is the data storage path for the file and sqlite backends.
	DataPath string

	// DenylistBackend selects the denylist store: "file", "sqlite" or "redis".
	DenylistBackend string

	// RedisAddr is the Redis address for the redis backend.
	RedisAddr string

	// RedisPassword is the Redis password for the redis backend.
	RedisPassword string

	// ChallengeTimeoutSeconds is how long a new member has to answer.
	ChallengeTimeoutSeconds int

	// MessageTTLSeconds is how long outbound notices live before deletion.
	MessageTTLSeconds int
}

func MustGetenvInt(name string, orDef *int64) int64 {
	env := os.Getenv(name)
	if env == "" {
		if orDef == nil {
			panic("Missing environment variable " + name)
		}

		return *orDef
	}

	val, err := strconv.ParseInt(env, 10, 64)
	if err != nil {
		panic("Environment variable " + name + " must be an integer")
	}

	return val
}

// MustResolveEnv resolves an Env from environment variables.
// It will panic if anything is invalid.
func MustResolveEnv() *Env {
	envData := &Env{}

	envData.BotToken = os.Getenv(envBotToken)
	if envData.BotToken == "" {
		panic("Missing " + envBotToken + " environment variable")
	}

	if env := os.Getenv(envDataPath); env == "" {
		envData.DataPath = defDataPath
	} else {
		envData.DataPath = env
	}

	switch env := os.Getenv(envDenylistBackend); env {
	case "":
		envData.DenylistBackend = defDenylistBackend
	case "file", "sqlite", "redis":
		envData.DenylistBackend = env
	default:
		panic(envDenylistBackend + ` must be one of "file", "sqlite", "redis"`)
	}

	if env := os.Getenv(envRedisAddr); env == "" {
		envData.RedisAddr = defRedisAddr
	} else {
		envData.RedisAddr = env
	}

	envData.RedisPassword = os.Getenv(envRedisPassword)

	{
		def := int64(gate.DefaultChallengeTimeout.Seconds())
		envData.ChallengeTimeoutSeconds = int(MustGetenvInt(envChallengeTimeoutSeconds, &def))
	}

	{
		def := int64(gate.DefaultMessageTTL.Seconds())
		envData.MessageTTLSeconds = int(MustGetenvInt(envMessageTTLSeconds, &def))
	}

	return envData
}
