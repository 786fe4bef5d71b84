package command

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/config"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/host"
)

// RunCommand runs a script in a bridge host backed by the simulated SDK.
type RunCommand struct {
	*BaseCommand
	ctx    context.Context
	config *config.Config

	configPath  string
	metricsAddr string
	logLevel    string
	timeout     time.Duration

	// listening, when set, receives the metrics listener address.
	listening func(addr string)
}

// NewRunCommand creates a new run command. ctx bounds every run.
func NewRunCommand(ctx context.Context, cfg *config.Config) *RunCommand {
	return &RunCommand{
		BaseCommand: NewBaseCommand(
			"run",
			"Run a player script against the bridge",
			"run [options] <script.js>",
		),
		ctx:    ctx,
		config: cfg,
	}
}

// SetupFlags configures the flags for the run command.
func (c *RunCommand) SetupFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "Load configuration from this file instead of the default")
	fs.StringVar(&c.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while the script runs")
	fs.StringVar(&c.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	fs.DurationVar(&c.timeout, "timeout", 0, "Abort the script if it has not settled after this long")
}

// Execute runs the script and prints its settled value as JSON.
func (c *RunCommand) Execute(args []string, stdout, stderr io.Writer) error {
	if len(args) != 1 {
		return c.UsageError(stderr, "expected exactly one script, got %d arguments", len(args))
	}
	script := args[0]

	cfg := c.config
	if c.configPath != "" {
		loaded, err := config.LoadFromPath(c.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if cfg == nil {
		cfg = config.NewConfig()
	}
	for _, w := range cfg.Warnings {
		_, _ = fmt.Fprintf(stderr, "Warning: %s\n", w)
	}

	timeout := c.timeout
	if timeout <= 0 {
		timeout = c.resolveTimeout(cfg)
	}
	metricsAddr := c.metricsAddr
	if metricsAddr == "" {
		metricsAddr = config.DefaultSchema().Resolve(cfg, config.KeyMetricsAddr)
	}

	ctx := c.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	opts := host.Options{Config: cfg, LogLevel: c.logLevel}
	if config.DefaultSchema().Resolve(cfg, config.KeyLogFile) == "" {
		opts.LogOutput = stderr
	}
	h, err := host.New(ctx, opts)
	if err != nil {
		return err
	}
	defer h.Close()

	g, gctx := errgroup.WithContext(ctx)
	var srv *http.Server
	if metricsAddr != "" {
		ln, err := net.Listen("tcp", metricsAddr)
		if err != nil {
			return fmt.Errorf("metrics listener: %w", err)
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		h.Logger().Info("serving metrics", "addr", ln.Addr().String())
		if c.listening != nil {
			c.listening(ln.Addr().String())
		}
		g.Go(func() error {
			if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	var result any
	g.Go(func() error {
		if srv != nil {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()
		}
		runCtx, cancel := context.WithTimeout(gctx, timeout)
		defer cancel()
		v, err := h.RunFile(runCtx, script)
		if err != nil {
			return fmt.Errorf("%s: %w", script, err)
		}
		result = v
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	if result == nil {
		return nil
	}
	out, err := json.Marshal(result)
	if err != nil {
		_, _ = fmt.Fprintf(stdout, "%v\n", result)
		return nil
	}
	_, _ = fmt.Fprintf(stdout, "%s\n", out)
	return nil
}

func (c *RunCommand) resolveTimeout(cfg *config.Config) time.Duration {
	if v, ok := cfg.GetCommandOption(c.Name(), "timeout"); ok {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	if opt := config.DefaultSchema().Lookup(c.Name(), "timeout"); opt != nil {
		if d, err := time.ParseDuration(opt.Default); err == nil {
			return d
		}
	}
	return 30 * time.Second
}
