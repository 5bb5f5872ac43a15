package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
	"golang.org/x/oauth2"

	"github.com/bzimmer/stravastats"
)

func config(c *cli.Context) (*stravastats.Config, error) {
	log.Info().Str("file", c.String("config")).Msg("config")
	cfg, err := stravastats.LoadConfig(c.String("config"))
	if err != nil {
		return nil, err
	}
	cfg.Credentials = stravastats.Credentials{
		ClientID:     c.String("client-id"),
		ClientSecret: c.String("client-secret"),
		RefreshToken: c.String("refresh-token"),
	}
	cfg.GeminiKey = c.String("gemini-key")
	if c.IsSet("gemini-model") {
		cfg.Model = c.String("gemini-model")
	}
	if c.IsSet("per-page") {
		cfg.PerPage = c.Int("per-page")
	}
	if c.IsSet("max-pages") {
		cfg.MaxPages = c.Int("max-pages")
	}
	if c.IsSet("output") {
		cfg.Output = c.String("output")
	}
	if c.IsSet("report") {
		cfg.Report = c.String("report")
	}
	if c.IsSet("database") {
		cfg.Database = c.String("database")
	}
	if c.IsSet("type") {
		cfg.Types = c.StringSlice("type")
	}
	return cfg, nil
}

// token produces a random token of length `n`
func token(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

func fetch(c *cli.Context, cfg *stravastats.Config) ([]*stravastats.Record, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ctx := c.Context
	runID := uuid.NewString()
	log.Logger = log.With().Str("run", runID).Logger()
	client, err := stravastats.NewClient(cfg.Credentials)
	if err != nil {
		return nil, err
	}
	if err = client.Authorize(ctx); err != nil {
		return nil, err
	}

	sinks := stravastats.Sinks{stravastats.NewCSVSink(cfg.Output)}
	if cfg.Database != "" {
		db, err := stravastats.OpenSQLite(cfg.Database, runID)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		sinks = append(sinks, db)
	}

	collector := stravastats.NewCollector(client, cfg.PerPage, cfg.MaxPages)
	records, err := stravastats.Fetch(ctx, collector, sinks)
	if err != nil {
		return nil, err
	}
	stravastats.PrintStats(c.App.Writer, records)
	return records, nil
}

func insights(c *cli.Context, cfg *stravastats.Config, records []*stravastats.Record) error {
	gen := stravastats.NewGeminiGenerator(cfg.GeminiKey, cfg.Model)
	_, err := stravastats.Insights(c.Context, gen, cfg.Profile, cfg.Types, records, cfg.Report)
	return err
}

func fetchCommand() *cli.Command {
	return &cli.Command{
		Name:  "fetch",
		Usage: "Fetch detailed activities and write the dataset",
		Action: func(c *cli.Context) error {
			cfg, err := config(c)
			if err != nil {
				return err
			}
			_, err = fetch(c, cfg)
			return err
		},
	}
}

func insightsCommand() *cli.Command {
	return &cli.Command{
		Name:  "insights",
		Usage: "Generate a training summary from a previously fetched dataset",
		Action: func(c *cli.Context) error {
			cfg, err := config(c)
			if err != nil {
				return err
			}
			records, err := stravastats.ReadCSV(cfg.Output)
			if err != nil {
				return err
			}
			return insights(c, cfg, records)
		},
	}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Fetch activities then generate a training summary",
		Action: func(c *cli.Context) error {
			cfg, err := config(c)
			if err != nil {
				return err
			}
			records, err := fetch(c, cfg)
			if err != nil {
				return err
			}
			return insights(c, cfg, records)
		},
	}
}

func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authorize the application and print the athlete's refresh token",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "base-url",
				Value: "http://localhost:9001",
				Usage: "Base URL of the local authorization server",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config(c)
			if err != nil {
				return err
			}
			if cfg.Credentials.ClientID == "" || cfg.Credentials.ClientSecret == "" {
				return fmt.Errorf("%w: missing client id or client secret", stravastats.ErrConfig)
			}
			state, err := token(16)
			if err != nil {
				return err
			}
			baseURL := c.String("base-url")
			u, err := url.Parse(baseURL)
			if err != nil {
				return err
			}
			oc := stravastats.OAuth2Config(cfg.Credentials, stravastats.Endpoint)
			oc.RedirectURL = baseURL + "/auth/callback"

			tokens := make(chan *oauth2.Token, 1)
			e := stravastats.NewAuthServer(oc, state, tokens)
			_, port, _ := net.SplitHostPort(u.Host)
			address := fmt.Sprintf("127.0.0.1:%s", port)
			go func() {
				if err := e.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error().Err(err).Msg("serving")
				}
			}()
			log.Info().Str("url", baseURL+"/auth/login").Msg("open in a browser")

			var tok *oauth2.Token
			select {
			case <-c.Context.Done():
				return c.Context.Err()
			case tok = <-tokens:
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := e.Shutdown(ctx); err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "STRAVA_REFRESH_TOKEN=%s\n", tok.RefreshToken)
			return nil
		},
	}
}

func main() {
	app := &cli.App{
		Name:     "stravastats",
		HelpName: "stravastats",
		Usage:    "Strava training statistics and insights",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "client-id",
				Usage:   "client id",
				EnvVars: []string{"STRAVA_CLIENT_ID"},
			},
			&cli.StringFlag{
				Name:    "client-secret",
				Usage:   "client secret",
				EnvVars: []string{"STRAVA_CLIENT_SECRET"},
			},
			&cli.StringFlag{
				Name:    "refresh-token",
				Usage:   "refresh token",
				EnvVars: []string{"STRAVA_REFRESH_TOKEN"},
			},
			&cli.StringFlag{
				Name:    "gemini-key",
				Usage:   "Gemini API key",
				EnvVars: []string{"GEMINI_API_KEY"},
			},
			&cli.StringFlag{
				Name:    "gemini-model",
				Value:   stravastats.DefaultModel,
				Usage:   "Gemini model",
				EnvVars: []string{"GEMINI_MODEL"},
			},
			&cli.StringFlag{
				Name:    "config",
				Usage:   "file with configuration parameters",
				EnvVars: []string{"STRAVASTATS_CONFIG"},
			},
			&cli.IntFlag{
				Name:  "per-page",
				Usage: "activities per listing page",
			},
			&cli.IntFlag{
				Name:  "max-pages",
				Usage: "maximum number of listing pages, 0 reads until an empty page",
			},
			&cli.StringFlag{
				Name:  "output",
				Usage: "dataset csv file",
			},
			&cli.StringFlag{
				Name:  "report",
				Usage: "insights report file",
			},
			&cli.StringFlag{
				Name:  "database",
				Usage: "optional sqlite database receiving the dataset",
			},
			&cli.StringSliceFlag{
				Name:  "type",
				Usage: "activity types included in the insights",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Value: false,
				Usage: "enable debug logging",
			},
		},
		Commands: []*cli.Command{
			fetchCommand(),
			insightsCommand(),
			runCommand(),
			authCommand(),
		},
		ExitErrHandler: func(c *cli.Context, err error) {
			if err == nil {
				return
			}
			log.Error().Err(err).Msg(c.App.Name)
		},
		Before: func(c *cli.Context) error {
			level := zerolog.InfoLevel
			if c.Bool("verbose") {
				level = zerolog.DebugLevel
			}
			zerolog.SetGlobalLevel(level)
			zerolog.DurationFieldUnit = time.Millisecond
			zerolog.DurationFieldInteger = false
			log.Logger = log.Output(
				zerolog.ConsoleWriter{
					Out:        c.App.ErrWriter,
					NoColor:    false,
					TimeFormat: time.RFC3339,
				},
			)
			return nil
		},
	}
	if err := app.RunContext(context.Background(), os.Args); err != nil {
		os.Exit(1)
	}
	os.Exit(0)
}
