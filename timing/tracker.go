package timing

import (
	"time"

	"github.com/benbjohnson/clock"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
)

// trackerWindow bounds how many recent periods a tracker retains for the
// percentile summary. The total cycle count is unbounded.
const trackerWindow = 10000

// Tracker observes the control loop's actual cycle periods so a run can be
// summarized against the nominal cadence.
type Tracker struct {
	clk     clock.Clock
	nominal time.Duration
	start   time.Time
	last    time.Time
	started bool
	cycles  int

	overruns int
	periods  []float64
	next     int
	full     bool
}

// NewTracker creates a tracker reading the given clock. nominal is the
// period the loop is paced at; a cycle running a full period or more late
// counts as an overrun.
func NewTracker(clk clock.Clock, nominal time.Duration) *Tracker {
	return &Tracker{
		clk:     clk,
		nominal: nominal,
		periods: make([]float64, 0, trackerWindow),
	}
}

// Tick records the completion of one cycle. The first call only arms the
// tracker.
func (t *Tracker) Tick() {
	now := t.clk.Now()
	if !t.started {
		t.started = true
		t.start = now
		t.last = now
		return
	}
	period := now.Sub(t.last)
	t.last = now
	t.cycles++
	if t.nominal > 0 && period >= 2*t.nominal {
		t.overruns++
	}

	secs := period.Seconds()
	if len(t.periods) < trackerWindow {
		t.periods = append(t.periods, secs)
		return
	}
	t.periods[t.next] = secs
	t.next = (t.next + 1) % trackerWindow
	t.full = true
}

// Report summarizes the observed cadence. FrequencyHz covers the whole run;
// the period percentiles cover the retained window.
type Report struct {
	Cycles      int
	Elapsed     time.Duration
	FrequencyHz float64
	Overruns    int
	Mean        time.Duration
	P99         time.Duration
	Max         time.Duration
}

// Report computes the cadence summary over the retained window.
func (t *Tracker) Report() (Report, error) {
	if t.cycles == 0 {
		return Report{}, errors.New("no cycles observed")
	}
	mean, err := stats.Mean(t.periods)
	if err != nil {
		return Report{}, err
	}
	p99, err := stats.Percentile(t.periods, 99)
	if err != nil {
		return Report{}, err
	}
	max, err := stats.Max(t.periods)
	if err != nil {
		return Report{}, err
	}
	elapsed := t.last.Sub(t.start)
	return Report{
		Cycles:      t.cycles,
		Elapsed:     elapsed,
		FrequencyHz: float64(t.cycles) / elapsed.Seconds(),
		Overruns:    t.overruns,
		Mean:        time.Duration(mean * float64(time.Second)),
		P99:         time.Duration(p99 * float64(time.Second)),
		Max:         time.Duration(max * float64(time.Second)),
	}, nil
}
