package commands

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/chembank/chembank/internal/config"
	"github.com/chembank/chembank/pkg/catalogue"
	"github.com/chembank/chembank/pkg/errors"
)

// loadConfig loads and validates configuration and applies the log level.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, errors.Wrap(err, "config load failed")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config invalid")
	}
	if err := LogLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return nil, errors.Wrap(err, "config invalid")
	}
	return cfg, nil
}

// withCatalogue opens the catalogue, runs fn and closes it again, writing the
// metrics file when one is configured.
func withCatalogue(fn func(ctx context.Context, cfg *config.Config, c *catalogue.Catalogue) error) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	c, err := catalogue.Open(cfg.SQLitePath, catalogue.Options{
		ImageBatchSize: cfg.ImageBatchSize,
		MaxImageSize:   cfg.MaxImageSize,
	})
	if err != nil {
		return errors.Wrap(err, "db init failed")
	}
	defer c.Close()

	runErr := fn(ctx, cfg, c)

	if cfg.MetricsFile != "" {
		if err := c.WriteMetrics(cfg.MetricsFile); err != nil {
			slog.Warn("metrics_not_written", "path", cfg.MetricsFile, "error", err)
		}
	}
	return runErr
}

func parseID(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, errors.Newf(errors.ErrMalformedInput, "argument", "parse", "invalid id %q", s)
	}
	return uint32(v), nil
}

// optional returns nil for an empty flag value.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func orDash(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func formatFloat(f *float64) string {
	if f == nil {
		return "-"
	}
	return strconv.FormatFloat(*f, 'g', -1, 64)
}

// truncate shortens s for table output.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func separator(width int) string {
	return strings.Repeat("-", width)
}
