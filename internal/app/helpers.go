package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tablecast/signage/internal/config"
	"github.com/tablecast/signage/internal/pkg/resilience"
	"go.uber.org/zap"
)

func newPolicy(name string, cfg config.ResilienceConfig, logger *zap.Logger) *resilience.Policy {
	failures := cfg.BreakerFailures
	if failures < 0 {
		failures = 0
	}
	return resilience.New(resilience.Options{
		Name:            name,
		MaxAttempts:     cfg.MaxAttempts,
		InitialInterval: cfg.InitialInterval,
		MaxInterval:     cfg.MaxInterval,
		BreakerFailures: uint32(failures),
		BreakerCooldown: cfg.BreakerCooldown,
		Logger:          logger,
	})
}

func applyTimezone(raw string) error {
	tz := strings.TrimSpace(raw)
	if tz == "" {
		return nil
	}
	loc, err := parseTimezoneLocation(tz)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", tz, err)
	}
	time.Local = loc
	_ = os.Setenv("TZ", tz)
	return nil
}

// parseTimezoneLocation accepts an IANA zone name or a "+hh:mm" offset.
func parseTimezoneLocation(tz string) (*time.Location, error) {
	if loc, err := time.LoadLocation(tz); err == nil {
		return loc, nil
	}
	if len(tz) == 6 && (tz[0] == '+' || tz[0] == '-') && tz[3] == ':' {
		h, errH := strconv.Atoi(tz[1:3])
		m, errM := strconv.Atoi(tz[4:6])
		if errH == nil && errM == nil && h <= 23 && m <= 59 {
			offset := h*3600 + m*60
			if tz[0] == '-' {
				offset = -offset
			}
			return time.FixedZone(tz, offset), nil
		}
	}
	return nil, fmt.Errorf("expect IANA zone (e.g. America/Chicago) or UTC offset (e.g. -05:00)")
}
