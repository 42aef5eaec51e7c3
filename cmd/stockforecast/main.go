package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"fyne.io/fyne/v2/app"
	"github.com/spf13/cobra"

	"StockForecast/internal/collector"
	"StockForecast/internal/config"
	"StockForecast/internal/directory"
	"StockForecast/internal/logging"
	"StockForecast/internal/notifier"
	"StockForecast/internal/pipeline"
	"StockForecast/internal/recorder"
	"StockForecast/internal/render"
	"StockForecast/internal/scheduler"
	"StockForecast/internal/ui"
)

var version = "dev"

var (
	configPath string
	logLevel   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "stockforecast",
		Short:         "Search tickers, fetch price history and chart a forecast",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runGUI,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.Path(), "Path to config.yaml")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level (debug/info/warn/error)")

	rootCmd.AddCommand(guiCmd())
	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(forecastCmd())
	rootCmd.AddCommand(botCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// env is the wiring shared by every subcommand.
type env struct {
	cfg      *config.Config
	dir      *directory.Directory
	fetcher  collector.Fetcher
	pipeline *pipeline.Pipeline
	rec      recorder.Recorder
	logs     io.Closer
}

func (e *env) Close() {
	if e.rec != nil {
		e.rec.Close()
	}
	if e.logs != nil {
		e.logs.Close()
	}
}

func setup(trigger string) (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	logs, err := logging.Setup(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return nil, fmt.Errorf("setup logging: %w", err)
	}
	e := &env{cfg: cfg, logs: logs}

	e.dir, err = directory.Default(cfg.Directory.Extra...)
	if err != nil {
		e.Close()
		return nil, err
	}

	e.fetcher, err = collector.NewFetcher(cfg.DataSource.Source, cfg.DataSource.BaseURL, cfg.Proxy, cfg.Retry())
	if err != nil {
		e.Close()
		return nil, err
	}
	slog.Info("data source", "name", e.fetcher.Name())

	e.rec, err = recorder.Open(cfg.Database.SQLitePath)
	if err != nil {
		slog.Warn("init sqlite recorder failed, using noop", "err", err)
		e.rec = recorder.NewNoopRecorder()
	}

	r := render.New(e.dir)
	r.Width, r.Height = cfg.Chart.Width, cfg.Chart.Height

	e.pipeline = pipeline.New(e.dir, e.fetcher, r, e.rec).WithTrigger(trigger)
	e.pipeline.Horizon = cfg.Forecast.HorizonDays
	e.pipeline.Options = cfg.Forecast.Model
	return e, nil
}

func runGUI(cmd *cobra.Command, args []string) error {
	e, err := setup("gui")
	if err != nil {
		return err
	}
	defer e.Close()

	shell := ui.NewShell(e.dir, collector.NewLoader(e.fetcher), e.pipeline, e.cfg.UI.MaxCharts)
	ui.Run(app.NewWithID("stockforecast"), e.cfg.UI.Title, shell)
	return nil
}

func guiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gui",
		Short: "Open the desktop window (default)",
		Args:  cobra.NoArgs,
		RunE:  runGUI,
	}
}

func searchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search [query]",
		Short: "List directory entries whose name contains query",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			dir, err := directory.Default(cfg.Directory.Extra...)
			if err != nil {
				return err
			}
			for _, label := range directory.Labels(dir.Search(strings.Join(args, " "))) {
				fmt.Fprintln(cmd.OutOrStdout(), label)
			}
			return nil
		},
	}
}

func forecastCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "forecast <symbol>",
		Short: "Fetch history, forecast and write the chart as PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup("cli")
			if err != nil {
				return err
			}
			defer e.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			symbol := strings.ToUpper(args[0])
			res, err := e.pipeline.Run(ctx, symbol)
			if err != nil {
				return err
			}
			if out == "" {
				out = strings.ReplaceAll(symbol, ".", "_") + "_forecast.png"
			}
			if err := os.WriteFile(out, res.Chart.PNG, 0o644); err != nil {
				return fmt.Errorf("write chart: %w", err)
			}

			end := res.Summary.ForecastEnd
			fmt.Fprintf(cmd.OutOrStdout(), "%s\nlast close %.2f on %s\nforecast %.2f [%.2f, %.2f] on %s (%+.1f%%)\nchart written to %s\n",
				res.Chart.Title,
				res.Summary.LastClose, res.Summary.LastDate.Format("2006-01-02"),
				end.Yhat, end.Lower, end.Upper, end.Date.Format("2006-01-02"), res.Summary.ChangePct,
				out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "PNG output path (default SYMBOL_forecast.png)")
	return cmd
}

func botCmd() *cobra.Command {
	var runOnStart bool
	cmd := &cobra.Command{
		Use:   "bot",
		Short: "Run the scheduled watchlist digest and Telegram commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup("cron")
			if err != nil {
				return err
			}
			defer e.Close()
			if err := e.cfg.ValidateBot(); err != nil {
				return fmt.Errorf("config validation: %w", err)
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			tn := notifier.NewTelegramNotifier(e.cfg.Telegram.BotToken, e.cfg.Telegram.ChatID, e.cfg.Proxy)
			sched := scheduler.NewScheduler(ctx, e.pipeline, e.dir, tn, e.rec, e.cfg.Schedule.Watchlist)
			if err := sched.Register(e.cfg.Schedule.WatchlistCron); err != nil {
				return err
			}
			sched.Start()
			defer sched.Stop()

			go tn.StartPolling(ctx, sched.HandleCommand)
			slog.Info("telegram polling started")

			if runOnStart || os.Getenv("RUN_ON_START") == "true" {
				slog.Info("running digest on start")
				go sched.RunDigestNow()
			}

			slog.Info("bot is running, press Ctrl+C to stop", "version", version)
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			<-sigCh

			slog.Info("shutdown signal received, stopping")
			cancel()
			return nil
		},
	}
	cmd.Flags().BoolVar(&runOnStart, "run-now", false, "Run the watchlist digest immediately")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "stockforecast %s\n", version)
		},
	}
}
