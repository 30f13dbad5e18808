package location

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	permission  bool
	services    bool
	highFix     *Fix
	balancedFix *Fix
	lastFix     *Fix
	attempts    []Accuracy
}

func (f *fakeSource) PermissionGranted(context.Context) (bool, error) { return f.permission, nil }
func (f *fakeSource) ServicesEnabled(context.Context) (bool, error)   { return f.services, nil }

func (f *fakeSource) Current(_ context.Context, acc Accuracy, _ time.Duration) (Fix, error) {
	f.attempts = append(f.attempts, acc)
	switch acc {
	case AccuracyHigh:
		if f.highFix != nil {
			return *f.highFix, nil
		}
	case AccuracyBalanced:
		if f.balancedFix != nil {
			return *f.balancedFix, nil
		}
	}
	return Fix{}, errors.New("no fix")
}

func (f *fakeSource) LastKnown(context.Context) (Fix, error) {
	if f.lastFix != nil {
		return *f.lastFix, nil
	}
	return Fix{}, errors.New("no last known position")
}

func TestCaptureHighAccuracy(t *testing.T) {
	src := &fakeSource{permission: true, services: true, highFix: &Fix{Latitude: 1, Longitude: 2}}
	c := NewCapturer(src, nil)

	fix, err := c.Capture(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Fix{Latitude: 1, Longitude: 2}, fix)
	assert.Equal(t, []Accuracy{AccuracyHigh}, src.attempts)
}

func TestCaptureDegradesToBalanced(t *testing.T) {
	src := &fakeSource{permission: true, services: true, balancedFix: &Fix{Latitude: 3, Longitude: 4}}
	c := NewCapturer(src, nil)

	fix, err := c.Capture(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Fix{Latitude: 3, Longitude: 4}, fix)
	assert.Equal(t, []Accuracy{AccuracyHigh, AccuracyBalanced}, src.attempts)
}

func TestCaptureDegradesToLastKnown(t *testing.T) {
	src := &fakeSource{permission: true, services: true, lastFix: &Fix{Latitude: 5, Longitude: 6}}
	c := NewCapturer(src, nil)

	fix, err := c.Capture(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Fix{Latitude: 5, Longitude: 6}, fix)
}

func TestCaptureUnavailable(t *testing.T) {
	src := &fakeSource{permission: true, services: true}
	c := NewCapturer(src, nil)

	_, err := c.Capture(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestCapturePermissionDenied(t *testing.T) {
	src := &fakeSource{permission: false, services: true, highFix: &Fix{}}
	c := NewCapturer(src, nil)

	_, err := c.Capture(context.Background())
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Empty(t, src.attempts, "denial must short-circuit the ladder")
}

func TestCaptureServicesDisabled(t *testing.T) {
	src := &fakeSource{permission: true, services: false, highFix: &Fix{}}
	c := NewCapturer(src, nil)

	_, err := c.Capture(context.Background())
	assert.ErrorIs(t, err, ErrServicesDisabled)
	assert.Empty(t, src.attempts)
}
