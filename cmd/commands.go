package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"notion-herald/internal/app"
	"notion-herald/internal/config"
	"notion-herald/internal/util"
	"notion-herald/internal/web"
)

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "notion-herald",
		Short:         "Daily Notion task digest and row sync",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to config.yaml (overrides env/ defaults)")

	cmd.AddCommand(
		newDigestCmd(opts),
		newSubmitCmd(opts),
		newPreviewCmd(opts),
		newCheckCmd(opts),
		newServeCmd(opts),
	)
	return cmd
}

// load reads configuration fresh; every command and every scheduled run
// calls it so property changes apply without a restart.
func (o *rootOptions) load() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Resolve(o.configPath)
	if err != nil {
		return nil, nil, err
	}
	logger, err := config.NewLogger(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logger, nil
}

func (o *rootOptions) build() (*app.App, error) {
	cfg, logger, err := o.load()
	if err != nil {
		return nil, err
	}
	return app.New(cfg, logger), nil
}

func newDigestCmd(opts *rootOptions) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Send today's task digest to the webhook",
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := targetDate(date, time.Now())
			if err != nil {
				return err
			}
			a, err := opts.build()
			if err != nil {
				return err
			}
			res := a.RunDigest(cmd.Context(), target)
			fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Day to report (YYYY-MM-DD, JST); defaults to today")
	return cmd
}

// targetDate resolves the --date flag to an instant on that JST day.
func targetDate(flag string, now time.Time) (time.Time, error) {
	if flag == "" {
		return now, nil
	}
	t, err := time.ParseInLocation("2006-01-02", flag, util.JST)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q: %w", flag, err)
	}
	return t, nil
}

func newSubmitCmd(opts *rootOptions) *cobra.Command {
	var action, file string
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Create or delete records from a JSON object or array",
		RunE: func(cmd *cobra.Command, args []string) error {
			act, err := app.ParseAction(action)
			if err != nil {
				return err
			}
			input, err := readInput(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}
			a, err := opts.build()
			if err != nil {
				return err
			}
			res, err := a.Submit(cmd.Context(), input, act)
			if err != nil {
				return err
			}
			if err := printJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			if !res.OK {
				return fmt.Errorf("%d of %d rows failed", failed(res), res.Count)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&action, "action", "create", "create or delete")
	cmd.Flags().StringVarP(&file, "file", "f", "-", "JSON input file, - for stdin")
	return cmd
}

func failed(res *app.SubmitResult) int {
	n := 0
	for _, r := range res.Results {
		if !r.OK {
			n++
		}
	}
	return n
}

func newPreviewCmd(opts *rootOptions) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show the properties and lookups rows would produce, without calling Notion",
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := readInput(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}
			a, err := opts.build()
			if err != nil {
				return err
			}
			rows, err := a.Preview(input)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rows)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "JSON input file, - for stdin")
	return cmd
}

func newCheckCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report configured properties and the mapped column types",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.build()
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), a.Check(cmd.Context()))
		},
	}
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the submit API and the daily digest schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			token, err := cfg.ResolveWebAuthToken()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			sched := &app.Scheduler{Clock: cfg.Digest.Schedule, Build: opts.build, Logger: logger}
			go func() {
				if err := sched.Run(ctx); err != nil {
					logger.Error("scheduler stopped", zap.Error(err))
				}
			}()

			router := web.NewRouter(func() (web.Submitter, error) {
				a, err := opts.build()
				if err != nil {
					return nil, err
				}
				return a, nil
			})
			return web.Serve(ctx, cfg.ListenAddr(), web.AuthMiddleware(router, token), logger)
		},
	}
}

func readInput(stdin io.Reader, file string) (any, error) {
	var (
		data []byte
		err  error
	)
	if file == "" || file == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return app.DecodeInput(data)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
