package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/r9s-ai/fractal/internal/logx"
	"github.com/r9s-ai/fractal/internal/metrics"
	"github.com/r9s-ai/fractal/internal/version"
	"github.com/r9s-ai/fractal/pkg/config"
	"github.com/r9s-ai/fractal/pkg/presets"
)

// Run loads cfgPath and serves until SIGINT or SIGTERM.
func Run(cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	lg, err := logx.New(cfg.Logging.Level, cfg.Logging.Development)
	if err != nil {
		return err
	}
	defer func() { _ = lg.Sync() }()

	accessLogger, accessCloser, accessColor, err := openAccessLogger(cfg)
	if err != nil {
		return fmt.Errorf("open access log: %w", err)
	}
	if accessCloser != nil {
		defer func() { _ = accessCloser.Close() }()
	}
	pidCloser, err := writePIDFile(cfg)
	if err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	if pidCloser != nil {
		defer func() { _ = pidCloser.Close() }()
	}

	reg, err := presets.Load(cfg.Presets.File)
	if err != nil {
		return fmt.Errorf("load presets: %w", err)
	}
	lg.Info("presets loaded", zap.String("file", cfg.Presets.File), zap.Strings("presets", reg.Names()))

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}
	s, err := New(Options{
		Config:       cfg,
		Presets:      reg,
		Metrics:      m,
		Logger:       lg,
		AccessLogger: accessLogger,
		AccessColor:  accessColor,
	})
	if err != nil {
		return err
	}

	autoReload, err := s.installPresetsAutoReload()
	if err != nil {
		return fmt.Errorf("install presets auto-reload: %w", err)
	}
	if autoReload != nil {
		defer func() { _ = autoReload.Close() }()
	}
	stopReload := s.installReloadSignalHandler()
	defer stopReload()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lg.Info("fractal listening",
		zap.String("listen", cfg.Server.Listen),
		zap.Bool("h2c", cfg.Server.H2C),
		zap.String("version", version.Get().Version),
	)
	return s.Serve(ctx)
}

// Serve listens on server.listen until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Server.Listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Server.Listen, err)
	}
	return s.ServeListener(ctx, ln)
}

func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadTimeout:       time.Duration(s.cfg.Server.ReadTimeoutMs) * time.Millisecond,
		ReadHeaderTimeout: time.Duration(s.cfg.Server.ReadTimeoutMs) * time.Millisecond,
		WriteTimeout:      time.Duration(s.cfg.Server.WriteTimeoutMs) * time.Millisecond,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(s.cfg.Server.ShutdownTimeoutMs)*time.Millisecond)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Handler returns the router, wrapped for cleartext HTTP/2 when server.h2c is set.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.Router()
	if s.cfg.Server.H2C {
		h = h2c.NewHandler(h, &http2.Server{})
	}
	return h
}

func (s *Server) installReloadSignalHandler() func() {
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGHUP)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range ch {
			_, _ = s.ReloadPresets("signal")
		}
	}()
	return func() {
		signal.Stop(ch)
		close(ch)
		<-done
	}
}

func openAccessLogger(cfg *config.Config) (*log.Logger, io.Closer, bool, error) {
	if cfg == nil || !cfg.Logging.AccessLog {
		return nil, nil, false, nil
	}

	path := strings.TrimSpace(cfg.Logging.AccessLogPath)
	if path == "" {
		return log.New(os.Stdout, "", 0), nil, logx.IsTerminal(os.Stdout), nil
	}

	dir := filepath.Dir(path)
	if strings.TrimSpace(dir) != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, nil, false, err
		}
	}
	// #nosec G304 -- access_log_path comes from trusted config/env.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, false, err
	}
	return log.New(f, "", 0), f, false, nil
}

func writePIDFile(cfg *config.Config) (io.Closer, error) {
	if cfg == nil {
		return nil, nil
	}
	path := strings.TrimSpace(cfg.Server.PidFile)
	if path == "" {
		return nil, nil
	}
	dir := filepath.Dir(path)
	if strings.TrimSpace(dir) != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, err
		}
	}

	tmp := path + ".tmp"
	pid := strconv.Itoa(os.Getpid()) + "\n"
	// #nosec G304 -- pid_file comes from trusted config/env.
	if err := os.WriteFile(tmp, []byte(pid), 0o600); err != nil {
		return nil, err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return nil, err
	}
	return closerFunc(func() error { return os.Remove(path) }), nil
}
