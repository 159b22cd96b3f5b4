// Command repoget fetches a resource from a repository location, prompting
// for credentials when the server asks for them.
//
//	repoget --url https://repo.example.com index.json
//	repoget --config repoget.yml -o index.json index.json
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kbukum/repoauth/bootstrap"
	"github.com/kbukum/repoauth/config"
	"github.com/kbukum/repoauth/httpclient"
	"github.com/kbukum/repoauth/logger"
	"github.com/kbukum/repoauth/observability"
	"github.com/kbukum/repoauth/repository"
	"github.com/kbukum/repoauth/repository/prompt"
	"github.com/kbukum/repoauth/version"
)

const appName = "repoget"

type flags struct {
	configFile string
	url        string
	output     string
	noPrompt   bool
	preemptive bool
}

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:           appName + " [path]",
		Short:         "Fetch a resource from an authenticated repository",
		Args:          cobra.MaximumNArgs(1),
		Version:       version.GetShortVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var cfg Config
			if err := config.LoadConfig(appName, &cfg, config.WithConfigFile(f.configFile)); err != nil {
				return err
			}
			if f.url != "" {
				cfg.Location.URL = f.url
			}
			if f.preemptive {
				cfg.Client.Preemptive = true
			}

			path := ""
			if len(args) == 1 {
				path = args[0]
			}

			out := cmd.OutOrStdout()
			if f.output != "" && f.output != "-" {
				file, err := os.Create(f.output)
				if err != nil {
					return err
				}
				defer func() { _ = file.Close() }()
				out = file
			}

			var requester repository.CredentialsRequester
			if !f.noPrompt {
				requester = prompt.NewSurveyRequester(prompt.WithStdio(os.Stdin, os.Stderr, os.Stderr))
			}
			return run(cmd.Context(), &cfg, requester, path, out)
		},
	}
	cmd.Flags().StringVarP(&f.configFile, "config", "c", "", "Path to config file (default: ./repoget.yml or user config dir)")
	cmd.Flags().StringVar(&f.url, "url", "", "Repository location URL (overrides location.url)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Write the response body to a file instead of stdout")
	cmd.Flags().BoolVar(&f.noPrompt, "no-prompt", false, "Never ask for credentials interactively")
	cmd.Flags().BoolVar(&f.preemptive, "preemptive", false, "Send stored HTTP credentials with the first request")
	return cmd
}

// run fetches path from the configured location and writes the body to out.
// requester may be nil, in which case rejected credentials are not renegotiated.
func run(ctx context.Context, cfg *Config, requester repository.CredentialsRequester, path string, out io.Writer) error {
	app, err := bootstrap.NewApp(cfg)
	if err != nil {
		return err
	}
	log := app.Logger.WithComponent(appName)

	locOpts := []repository.LocationOption{repository.WithLogger(log)}
	if requester != nil {
		locOpts = append(locOpts, repository.WithRequester(requester))
	}
	loc, err := cfg.Location.Build(ctx, locOpts...)
	if err != nil {
		return err
	}

	clientOpts := []httpclient.Option{httpclient.WithLogger(log)}
	if cfg.Observability.Metrics {
		metrics, err := observability.NewExchangeMetrics(observability.Meter(observability.InstrumentationName))
		if err != nil {
			return err
		}
		clientOpts = append(clientOpts, httpclient.WithMetrics(metrics))
	}
	client := httpclient.NewComponent(loc, cfg.Client, clientOpts...)

	if err := app.RegisterComponent(observability.NewComponent(cfg.Observability)); err != nil {
		return err
	}
	if err := app.RegisterComponent(client); err != nil {
		return err
	}

	return app.RunTask(ctx, func(ctx context.Context) error {
		resp, err := client.Client().DoWithReauthentication(ctx, httpclient.Request{Path: path})
		if err != nil {
			return err
		}
		if err := resp.Err(); err != nil {
			return err
		}
		if _, err := out.Write(resp.Body); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
		log.Debug("fetched", logger.Fields(logger.FieldStatus, resp.StatusCode, "bytes", len(resp.Body)))
		return nil
	})
}
