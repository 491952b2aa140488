package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-faster/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/omochice/bobba-client/internal/admin"
	"github.com/omochice/bobba-client/internal/client"
	"github.com/omochice/bobba-client/internal/config"
	"github.com/omochice/bobba-client/internal/metrics"
	"github.com/omochice/bobba-client/internal/session"
	"github.com/omochice/bobba-client/internal/transport"
	"github.com/omochice/bobba-client/internal/transport/tcp"
	"github.com/omochice/bobba-client/internal/transport/ws"
	"github.com/omochice/bobba-client/internal/users"
)

type runFlags struct {
	configPath string
	host       string
	port       int
	secure     bool
	transport  string
	username   string
	adminAddr  string
	logLevel   string
}

func runCmd() *cobra.Command {
	var f runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Connect to a server and start a session",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "Path to a YAML config file")
	cmd.Flags().StringVar(&f.host, "host", "", "Server host")
	cmd.Flags().IntVar(&f.port, "port", 0, "Server port")
	cmd.Flags().BoolVar(&f.secure, "secure", false, "Use TLS (wss or TLS over TCP)")
	cmd.Flags().StringVar(&f.transport, "transport", "", "Transport: ws or tcp")
	cmd.Flags().StringVarP(&f.username, "username", "u", "", "Username to log in with")
	cmd.Flags().StringVar(&f.adminAddr, "admin-addr", "", "Address of the metrics and health endpoint")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "Log level")

	return cmd
}

// loadConfig reads the config file, then applies flags that were set.
func loadConfig(cmd *cobra.Command, f runFlags) (*config.Config, error) {
	cfg := config.LoadDefaultConfig()
	if f.configPath != "" {
		loaded, err := config.LoadConfig(f.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Server.Host = f.host
	}
	if flags.Changed("port") {
		cfg.Server.Port = f.port
	}
	if flags.Changed("secure") {
		cfg.Server.Secure = f.secure
	}
	if flags.Changed("transport") {
		cfg.Server.Transport = f.transport
	}
	if flags.Changed("username") {
		cfg.Login.Username = f.username
	}
	if flags.Changed("admin-addr") {
		cfg.Admin.Addr = f.adminAddr
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = f.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

func newDialer(cfg config.ServerConfig) transport.Dialer {
	if cfg.Transport == config.TransportTCP {
		return &tcp.Dialer{Timeout: cfg.DialTimeout}
	}
	return &ws.Dialer{Timeout: cfg.DialTimeout}
}

func run(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := config.SetupLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	manager := client.NewManager(
		client.WithDialer(newDialer(cfg.Server)),
		client.WithLogger(logger),
		client.WithMetrics(m),
	)
	u := users.NewManager()

	s, err := session.New(cfg, manager, logger, session.WithMetrics(m), session.WithUsers(u))
	if err != nil {
		return err
	}

	if cfg.Admin.Addr != "" {
		adminServer := admin.New(cfg.Admin.Addr, manager, u, reg, logger)
		if err := adminServer.Start(); err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = adminServer.Stop(shutdownCtx)
		}()
	}

	if err := s.Start(ctx); err != nil {
		return err
	}
	fmt.Fprintf(out, "Connected to %s:%d as %s\n", cfg.Server.Host, cfg.Server.Port, cfg.Login.Username)

	go readCommands(in, out, s, manager, logger)

	if err := s.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return errors.Wrap(err, "session ended")
	}
	fmt.Fprintln(out, "Disconnected from server")
	return nil
}

// readCommands forwards stdin lines to the session until EOF or :quit.
func readCommands(in io.Reader, out io.Writer, s *session.Session, manager *client.Manager, logger *zap.Logger) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		c, err := parseCommand(scanner.Text())
		if err != nil {
			fmt.Fprintf(out, "%v\n", err)
			continue
		}
		if c.kind == cmdNone {
			continue
		}
		if c.kind == cmdQuit {
			break
		}
		if err := c.apply(s); err != nil {
			logger.Warn("Failed to send command", zap.Error(err))
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Warn("Error reading input", zap.Error(err))
	}
	manager.Disconnect()
}
