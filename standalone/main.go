package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"path"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	_ "github.com/mattn/go-sqlite3"
	"github.com/redis/go-redis/v9"

	"github.com/alexice92/captcha-tgbot-monteanimals/filedriver"
	"github.com/alexice92/captcha-tgbot-monteanimals/gate"
	"github.com/alexice92/captcha-tgbot-monteanimals/gate/telegram"
	"github.com/alexice92/captcha-tgbot-monteanimals/redisdriver"
	"github.com/alexice92/captcha-tgbot-monteanimals/sqlitedriver"
)

func main() {
	jsonLogHandler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{})
	logger := slog.New(jsonLogHandler)
	slog.SetDefault(logger)

	env := MustResolveEnv()

	// Try to create data directory.
	_ = os.MkdirAll(env.DataPath, 0o700)

	driver, err := newDriver(env, logger)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = driver.Close()
	}()

	api, err := tgbotapi.NewBotAPI(env.BotToken)
	if err != nil {
		panic(err)
	}

	g := gate.NewGate(driver, telegram.NewMessenger(api),
		gate.WithLogger(logger),
		gate.WithChallengeTimeout(time.Duration(env.ChallengeTimeoutSeconds)*time.Second),
		gate.WithMessageTTL(time.Duration(env.MessageTTLSeconds)*time.Second),
	)

	bot := telegram.NewBot(api, g,
		telegram.WithLogger(logger),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := bot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		panic(err)
	}
}

func newDriver(env *Env, logger *slog.Logger) (gate.Driver, error) {
	switch env.DenylistBackend {
	case "sqlite":
		const denylistFilename = "denylist.sqlite?_journal=WAL"
		db, err := sql.Open("sqlite3", path.Join(env.DataPath, denylistFilename))
		if err != nil {
			return nil, err
		}
		return sqlitedriver.NewDriver(db)

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     env.RedisAddr,
			Password: env.RedisPassword,
		})
		return redisdriver.NewDriver(client,
			redisdriver.WithLogger(logger),
		)

	default:
		return filedriver.NewDriver(path.Join(env.DataPath, "denylist.csv"))
	}
}
