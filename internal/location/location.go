// Package location captures a device position with progressive degradation:
// a high-accuracy fix first, then a balanced fix with a looser freshness
// bound, then the last known position with no freshness bound at all.
package location

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Sentinel errors surfaced to the user with remediation guidance.
var (
	ErrPermissionDenied = errors.New("location permission denied: grant location access to share your position")
	ErrServicesDisabled = errors.New("location services disabled: enable them in system settings")
	ErrUnavailable      = errors.New("location unavailable: move to an area with better signal and try again")
)

// Fix is a resolved coordinate pair in floating point degrees.
type Fix struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Accuracy selects the positioning mode for a fix attempt.
type Accuracy int

const (
	AccuracyHigh Accuracy = iota
	AccuracyBalanced
)

// Source is the platform position provider.
type Source interface {
	PermissionGranted(ctx context.Context) (bool, error)
	ServicesEnabled(ctx context.Context) (bool, error)
	// Current attempts a fresh fix; maxAge bounds how stale a cached fix may be.
	Current(ctx context.Context, acc Accuracy, maxAge time.Duration) (Fix, error)
	// LastKnown returns the last recorded position regardless of age.
	LastKnown(ctx context.Context) (Fix, error)
}

// Capturer runs the degradation ladder against a Source.
type Capturer struct {
	src    Source
	logger *zap.Logger

	attemptTimeout time.Duration
	highMaxAge     time.Duration
	balancedMaxAge time.Duration
}

// NewCapturer creates a capturer with the default per-attempt timeout and
// cache-age bounds.
func NewCapturer(src Source, logger *zap.Logger) *Capturer {
	return &Capturer{
		src:            src,
		logger:         logger,
		attemptTimeout: 10 * time.Second,
		highMaxAge:     10 * time.Second,
		balancedMaxAge: time.Minute,
	}
}

// Capture resolves the current position. Permission or service denial
// short-circuits the ladder; exhausting every attempt yields ErrUnavailable
// rather than a hard failure from the last attempt.
func (c *Capturer) Capture(ctx context.Context) (Fix, error) {
	granted, err := c.src.PermissionGranted(ctx)
	if err != nil {
		return Fix{}, fmt.Errorf("check location permission: %w", err)
	}
	if !granted {
		return Fix{}, ErrPermissionDenied
	}

	enabled, err := c.src.ServicesEnabled(ctx)
	if err != nil {
		return Fix{}, fmt.Errorf("check location services: %w", err)
	}
	if !enabled {
		return Fix{}, ErrServicesDisabled
	}

	if fix, err := c.current(ctx, AccuracyHigh, c.highMaxAge); err == nil {
		return fix, nil
	} else if c.logger != nil {
		c.logger.Debug("high-accuracy fix failed", zap.Error(err))
	}

	if fix, err := c.current(ctx, AccuracyBalanced, c.balancedMaxAge); err == nil {
		return fix, nil
	} else if c.logger != nil {
		c.logger.Debug("balanced fix failed", zap.Error(err))
	}

	if fix, err := c.src.LastKnown(ctx); err == nil {
		return fix, nil
	}

	return Fix{}, ErrUnavailable
}

func (c *Capturer) current(ctx context.Context, acc Accuracy, maxAge time.Duration) (Fix, error) {
	ctx, cancel := context.WithTimeout(ctx, c.attemptTimeout)
	defer cancel()
	return c.src.Current(ctx, acc, maxAge)
}
