package footfall

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/swdee/go-footfall/counter"
	"github.com/swdee/go-footfall/tracker"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"zero width", func(c *Config) { c.FrameWidth = 0 }, true},
		{"negative height", func(c *Config) { c.FrameHeight = -1 }, true},
		{"line at top", func(c *Config) { c.LinePosition = 0 }, false},
		{"line at bottom", func(c *Config) { c.LinePosition = 1 }, false},
		{"line below frame", func(c *Config) { c.LinePosition = 1.1 }, true},
		{"line nan", func(c *Config) { c.LinePosition = math.NaN() }, true},
		{"negative distance", func(c *Config) { c.MaxMatchDistance = -5 }, true},
		{"negative ratio", func(c *Config) { c.MatchDistanceRatio = -0.1 }, true},
		{"infinite distance", func(c *Config) { c.MaxMatchDistance = math.Inf(1) }, true},
		{"nan distance", func(c *Config) { c.MaxMatchDistance = math.NaN() }, true},
		{"infinite ratio", func(c *Config) { c.MatchDistanceRatio = math.Inf(1) }, true},
		{"ratio overflows gate", func(c *Config) { c.MatchDistanceRatio = math.MaxFloat64 }, true},
		{"no gate", func(c *Config) { c.MatchDistanceRatio = 0 }, true},
		{"pixel gate only", func(c *Config) {
			c.MatchDistanceRatio = 0
			c.MaxMatchDistance = 50
		}, false},
		{"history of one", func(c *Config) { c.TrackHistoryLength = 1 }, true},
		{"history of two", func(c *Config) { c.TrackHistoryLength = 2 }, false},
		{"zero grace", func(c *Config) { c.ExpiryGraceFrames = 0 }, true},
		{"unknown direction", func(c *Config) { c.Direction = counter.Direction(7) }, true},
		{"optimal association", func(c *Config) { c.Association = tracker.AssociateOptimal }, false},
		{"unknown association", func(c *Config) { c.Association = tracker.AssociationMode(9) }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig(1280, 720)
			tt.mutate(&cfg)

			err := cfg.Validate()

			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}

			assert.True(t, errors.Is(err, ErrInvalidConfig), "got %v", err)

			_, err = NewEngine(cfg)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestConfigMatchDistance(t *testing.T) {
	cfg := DefaultConfig(300, 400)
	assert.InDelta(t, 50.0, cfg.MatchDistance(), 1e-9)

	cfg.MaxMatchDistance = 75
	assert.Equal(t, 75.0, cfg.MatchDistance())
}

func TestConfigLineY(t *testing.T) {
	cfg := DefaultConfig(640, 480)
	assert.Equal(t, 240.0, cfg.LineY())

	cfg.LinePosition = 0.25
	assert.Equal(t, 120.0, cfg.LineY())
}
