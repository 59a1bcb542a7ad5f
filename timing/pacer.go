// Package timing paces the control loop at its fixed cadence and tracks how
// well the cadence held.
package timing

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"
)

// Pacer blocks the control loop until each successive cycle is due.
type Pacer interface {
	// Wait blocks until the next cycle is due, reporting false when the
	// context ends first.
	Wait(ctx context.Context) bool
	// Period returns the nominal cycle period.
	Period() time.Duration
	// Stop releases the pacer's resources.
	Stop()
}

type tickerPacer struct {
	period time.Duration
	ticker *clock.Ticker
}

// NewPacer creates a pacer ticking at the given frequency on the given clock.
func NewPacer(clk clock.Clock, frequencyHz float64) (Pacer, error) {
	if frequencyHz <= 0 {
		return nil, errors.Errorf("pacer frequency must be positive, got %f", frequencyHz)
	}
	period := time.Duration(float64(time.Second) / frequencyHz)
	return &tickerPacer{
		period: period,
		ticker: clk.Ticker(period),
	}, nil
}

func (p *tickerPacer) Wait(ctx context.Context) bool {
	return goutils.SelectContextOrWaitChan(ctx, p.ticker.C)
}

func (p *tickerPacer) Period() time.Duration {
	return p.period
}

func (p *tickerPacer) Stop() {
	p.ticker.Stop()
}
