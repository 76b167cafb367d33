package redis_client

import (
	"context"
	"fmt"

	"github.com/noiseboard/noiseboard/pkg/util"
	"github.com/redis/go-redis/v9"
)

var Client *redis.Client

const defaultConnectionAddress = "localhost:6379"
const defaultConnectionPassword = ""
const defaultDatabase = 0

// Connect opens the shared redis client from NOISEBOARD_REDIS_* and checks it responds.
func Connect(ctx context.Context) error {
	env := util.GetEnvironmentVariables()

	address := defaultConnectionAddress
	password := defaultConnectionPassword

	if env["NOISEBOARD_REDIS_ADDRESS"] != "" {
		address = env["NOISEBOARD_REDIS_ADDRESS"]
	}

	if env["NOISEBOARD_REDIS_PASSWORD"] != "" {
		password = env["NOISEBOARD_REDIS_PASSWORD"]
	}

	database, err := util.GetEnvironmentInt(env, "NOISEBOARD_REDIS_DATABASE", defaultDatabase)
	if err != nil {
		return fmt.Errorf("NOISEBOARD_REDIS_DATABASE: %w", err)
	}

	Client = redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       database,
	})

	if err := Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis %s: %w", address, err)
	}

	return nil
}
