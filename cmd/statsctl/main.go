package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"finstats/internal/config"
	"finstats/internal/database"
	"finstats/internal/models"
	"finstats/internal/repositories"
	"finstats/internal/services"

	"github.com/alexflint/go-arg"
	"gopkg.in/yaml.v3"
)

const (
	formatYAML = "yaml"
	formatJSON = "json"

	exitUsage   = 2
	exitFailure = 1
)

type Args struct {
	Profile          string `arg:"--profile,required" help:"profile to aggregate"`
	Currency         string `arg:"--currency,required" help:"base currency, e.g. USD"`
	From             string `arg:"--from,required" help:"first day, YYYY-MM-DD"`
	To               string `arg:"--to,required" help:"last day, YYYY-MM-DD"`
	IncludeConverted bool   `arg:"--include-converted" help:"convert transactions in other currencies at current rates"`
	Format           string `arg:"--format" default:"yaml" help:"output format: yaml or json"`
	Verbose          bool   `arg:"-v,--verbose" help:"log progress to stderr"`
}

// Version is set with -ldflags at build time.
var Version = "development"

func (Args) Version() string {
	return "statsctl " + Version
}

func (Args) Description() string {
	return "statsctl computes income/expense statistics for one profile and prints them."
}

func main() {
	var args Args
	p, err := arg.NewParser(arg.Config{}, &args)
	if err != nil {
		log.Fatalf("Error creating argument parser: %v", err)
	}
	if err := p.Parse(os.Args[1:]); err != nil {
		switch {
		case errors.Is(err, arg.ErrHelp):
			p.WriteHelp(os.Stdout)
			os.Exit(0)
		case errors.Is(err, arg.ErrVersion):
			fmt.Println(args.Version())
			os.Exit(0)
		}
		p.Fail(err.Error())
	}
	if args.Format != formatYAML && args.Format != formatJSON {
		p.Fail(fmt.Sprintf("invalid --format %q: must be yaml or json", args.Format))
	}

	level := slog.LevelWarn
	if args.Verbose {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, args, os.Stdout, os.Stderr, logger))
}

func run(ctx context.Context, args Args, stdout, stderr io.Writer, logger *slog.Logger) int {
	cfg := config.Load()

	db, err := database.New(&cfg.Database)
	if err != nil {
		fmt.Fprintf(stderr, "statsctl: %v\n", err)
		return exitFailure
	}
	defer db.Close()

	metrics := services.NoopMetrics{}
	rateProvider, closeRates, err := services.BuildRateProvider(ctx, cfg, metrics, logger)
	if err != nil {
		fmt.Fprintf(stderr, "statsctl: %v\n", err)
		return exitFailure
	}
	defer closeRates()

	statisticsService := services.NewStatisticsService(
		repositories.NewTransactionRepository(db.DB),
		rateProvider,
		metrics,
		logger,
	)

	return query(ctx, statisticsService, args, stdout, stderr)
}

// query runs one statistics computation and renders it; the return value is the exit code.
func query(ctx context.Context, svc services.StatisticsServiceInterface, args Args, stdout, stderr io.Writer) int {
	result, err := svc.GetStatistics(ctx, models.StatisticsQuery{
		Profile:          args.Profile,
		Currency:         args.Currency,
		From:             args.From,
		To:               args.To,
		IncludeConverted: args.IncludeConverted,
	})
	if err != nil {
		fmt.Fprintf(stderr, "statsctl: %v\n", err)
		if errors.Is(err, services.ErrValidation) {
			return exitUsage
		}
		return exitFailure
	}

	if err := render(stdout, result, args.Format); err != nil {
		fmt.Fprintf(stderr, "statsctl: %v\n", err)
		return exitFailure
	}
	return 0
}

func render(w io.Writer, result *models.StatisticsResult, format string) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(result); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}
