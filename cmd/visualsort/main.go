// Main package for the visualsort CLI: runs one sorting algorithm against a
// visual array so every step shows up on a visualization server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/russellsayshi/visualsort/pkg/config"
	"github.com/russellsayshi/visualsort/pkg/sorts"
	"github.com/russellsayshi/visualsort/pkg/visualarr"
	"go.uber.org/zap"
)

func main() {
	logger := zap.Must(zap.NewProduction())
	if os.Getenv("APP_ENV") != "production" {
		logger = zap.Must(zap.NewDevelopment())
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := run(ctx, logger, os.Args[1:]); err != nil {
		logger.Error("visualsort failed", zap.Error(err))
		stop()
		logger.Sync()
		os.Exit(1)
	}
}

// run returns once the sort finishes or ctx is cancelled. On every path the
// visual array is closed, so the server always sees Shutdown.
func run(ctx context.Context, logger *zap.Logger, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	//
	// Flags (override env / .env)
	fs := flag.NewFlagSet("visualsort", flag.ContinueOnError)
	algorithmName := fs.String("algorithm", "bubble", fmt.Sprintf("Sorting algorithm to run, one of %v", sorts.Names()))
	fs.StringVar(&cfg.Host, "host", cfg.Host, "Visualization server host")
	fs.IntVar(&cfg.Port, "port", cfg.Port, "Visualization server port")
	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "Transport to the server: tcp or websocket")
	fs.StringVar(&cfg.WsEndpoint, "ws-endpoint", cfg.WsEndpoint, "HTTP endpoint of the server's WebSocket listener")
	fs.IntVar(&cfg.ConnectAttempts, "connect-attempts", cfg.ConnectAttempts, "Connect attempts before giving up, with exponential backoff")
	fs.BoolVar(&cfg.StrictHandshake, "strict-handshake", cfg.StrictHandshake, "Abort if any handshake send fails instead of running degraded")
	initialArray := fs.String("array", "", "Comma-separated array to push to the server; empty pulls the server's array")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	algorithm, err := sorts.Lookup(*algorithmName)
	if err != nil {
		return err
	}
	initial, err := parseArray(*initialArray)
	if err != nil {
		return err
	}

	params := cfg.VisualArrayParams()
	params.InitialArray = initial
	params.Logger = logger
	params.Dial = retryingDial(visualarr.DialFunc(params, logger), cfg.ConnectAttempts, 500*time.Millisecond, logger)

	arr, err := visualarr.Open(ctx, params)
	if err != nil {
		return err
	}
	defer arr.Close()

	log := logger.With(zap.String("sessionId", arr.SessionId()), zap.String("algorithm", *algorithmName))
	if arr.Degraded() {
		log.Warn("Running degraded: the server may not show the same array")
	}

	log.Info("Starting sort", zap.Int("size", arr.Len()))
	start := time.Now()
	if err := algorithm(&cancellableArray{ctx: ctx, arr: arr}); err != nil {
		if ctx.Err() != nil {
			log.Warn("Sort interrupted, shutting down", zap.Error(err))
		}
		return err
	}
	log.Info("Sort finished", zap.Duration("elapsed", time.Since(start)), zap.Bool("degraded", arr.Degraded()))

	return nil
}

func parseArray(s string) ([]int32, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	parts := strings.Split(s, ",")
	out := make([]int32, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseInt(strings.TrimSpace(p), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid array element %q: %w", p, err)
		}
		out = append(out, int32(v))
	}
	return out, nil
}
