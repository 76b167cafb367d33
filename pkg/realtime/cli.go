package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kr/pretty"
	"github.com/liip/sheriff"
	"github.com/noiseboard/noiseboard/pkg/api511"
	"github.com/noiseboard/noiseboard/pkg/cachedresults"
	"github.com/noiseboard/noiseboard/pkg/config"
	"github.com/noiseboard/noiseboard/pkg/ctdf"
	"github.com/noiseboard/noiseboard/pkg/predictor"
	"github.com/noiseboard/noiseboard/pkg/redis_client"
	"github.com/noiseboard/noiseboard/pkg/sign"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func configFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "YAML config file, defaults to the built in service catalog",
		},
		&cli.StringFlag{
			Name:    "api-key",
			Aliases: []string{"k"},
			Usage:   "511.org API key",
		},
		&cli.StringFlag{
			Name:  "legacy-token",
			Usage: "511.org legacy XML API token, only needed by services with variant: legacy",
		},
	}
}

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "board",
		Usage: "Transit arrivals board",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "poll 511.org and drive the sign",
				Flags: append(configFlags(),
					&cli.StringFlag{
						Name:    "port",
						Aliases: []string{"p"},
						Usage:   "serial port of the sign, the board is only printed when unset",
					},
					&cli.BoolFlag{
						Name:  "once",
						Usage: "render a single frame and exit",
					},
				),
				Action: func(c *cli.Context) error {
					boardConfig, err := loadConfig(c)
					if err != nil {
						return err
					}
					if c.IsSet("port") {
						boardConfig.Serial.Device = c.String("port")
					}

					ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
					defer stop()

					predictors, err := buildPredictors(ctx, boardConfig)
					if err != nil {
						return err
					}

					driver := &BoardDriver{
						Predictors:     predictors,
						Console:        c.App.Writer,
						RenderInterval: boardConfig.Polling.RenderInterval,
						RefreshEvery:   boardConfig.Polling.RefreshEvery,
					}

					if boardConfig.Serial.Device != "" {
						port, err := sign.Open(boardConfig.Serial.Device, boardConfig.Serial.BaudRate)
						if err != nil {
							return err
						}
						defer port.Close()

						driver.Board = port
					} else {
						log.Info().Msg("No serial device configured, printing the board only")
					}

					if c.Bool("once") {
						return driver.Cycle(ctx)
					}

					return driver.Run(ctx)
				},
			},
			{
				Name:  "dump",
				Usage: "fetch every service once and print the arrival data",
				Flags: append(configFlags(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "print JSON instead of Go syntax",
					},
					&cli.BoolFlag{
						Name:  "detailed",
						Usage: "include stop ids in the JSON output",
					},
				),
				Action: func(c *cli.Context) error {
					boardConfig, err := loadConfig(c)
					if err != nil {
						return err
					}

					predictors, err := buildPredictors(c.Context, boardConfig)
					if err != nil {
						return err
					}

					dumps, err := dumpPredictors(c.Context, predictors, time.Now())
					if err != nil {
						return err
					}

					if !c.Bool("json") {
						_, err = fmt.Fprintf(c.App.Writer, "%# v\n", pretty.Formatter(dumps))
						return err
					}

					groups := []string{"basic"}
					if c.Bool("detailed") {
						groups = append(groups, "detailed")
					}

					reduced, err := sheriff.Marshal(&sheriff.Options{Groups: groups}, dumps)
					if err != nil {
						return err
					}

					encoder := json.NewEncoder(c.App.Writer)
					encoder.SetIndent("", "  ")

					return encoder.Encode(reduced)
				},
			},
		},
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	boardConfig, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}

	if c.IsSet("api-key") {
		boardConfig.APIKey = c.String("api-key")
	}
	if c.IsSet("legacy-token") {
		boardConfig.LegacyToken = c.String("legacy-token")
	}

	if err := boardConfig.RequireCredentials(); err != nil {
		return nil, err
	}

	return boardConfig, nil
}

func buildPredictors(ctx context.Context, boardConfig *config.Config) ([]*predictor.Predictor, error) {
	clientConfig := boardConfig.ClientConfig()

	if boardConfig.Cache.TTL > 0 {
		if err := redis_client.Connect(ctx); err != nil {
			return nil, err
		}

		clientConfig.Cache = cachedresults.New(redis_client.Client, boardConfig.Cache.TTL)
	}

	client := api511.NewClient(clientConfig)
	predictors := make([]*predictor.Predictor, 0, len(boardConfig.Services))

	for i := range boardConfig.Services {
		service := &boardConfig.Services[i]

		fetcher := &RetryFetcher{
			Fetcher: client.FetcherFor(*service),
			Service: service.Headline(),
		}

		predictors = append(predictors, predictor.New(service, fetcher, boardConfig.PredictorOptions()))
	}

	return predictors, nil
}

type serviceDump struct {
	Service string     `json:"service" groups:"basic,detailed"`
	State   string     `json:"state" groups:"detailed"`
	Stops   []stopDump `json:"stops" groups:"basic,detailed"`
}

type stopDump struct {
	StopID string                  `json:"stop_id" groups:"basic,detailed"`
	Routes []*ctdf.RoutePrediction `json:"routes" groups:"basic,detailed"`
}

// dumpPredictors refreshes every predictor once and collects the minute counts. Fetch failures are
// logged and leave the stop out.
func dumpPredictors(ctx context.Context, predictors []*predictor.Predictor, now time.Time) ([]serviceDump, error) {
	dumps := make([]serviceDump, 0, len(predictors))

	for _, servicePredictor := range predictors {
		if err := servicePredictor.Refresh(ctx); err != nil && ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if err := servicePredictor.DeriveETAs(now); err != nil {
			log.Warn().Err(err).Str("service", servicePredictor.Service.Headline()).Msg("Failed to derive arrival times")
		}

		snapshot, err := servicePredictor.Snapshot()
		if err != nil {
			return nil, err
		}

		dump := serviceDump{
			Service: servicePredictor.Service.Headline(),
			State:   servicePredictor.State().String(),
		}

		for stopID, stopPredictions := range snapshot.All() {
			stop := stopDump{StopID: stopID}

			for _, routePrediction := range stopPredictions.All() {
				stop.Routes = append(stop.Routes, routePrediction)
			}

			dump.Stops = append(dump.Stops, stop)
		}

		dumps = append(dumps, dump)
	}

	return dumps, nil
}
