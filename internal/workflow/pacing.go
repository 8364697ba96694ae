package workflow

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
)

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// ContextSleep is the production SleepFunc.
func ContextSleep(ctx context.Context, d time.Duration) error {
	return chromedp.Sleep(d).Do(ctx)
}

// Pacer inserts human-looking gaps between form interactions. Delays are
// drawn uniformly from [min, max].
type Pacer struct {
	mu    sync.Mutex
	rng   *rand.Rand
	min   time.Duration
	max   time.Duration
	sleep SleepFunc
}

// NewPacer creates a Pacer. A nil sleep uses ContextSleep. max is raised to
// min when smaller.
func NewPacer(min, max time.Duration, rng *rand.Rand, sleep SleepFunc) *Pacer {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if sleep == nil {
		sleep = ContextSleep
	}
	if max < min {
		max = min
	}
	return &Pacer{rng: rng, min: min, max: max, sleep: sleep}
}

// Next returns the next delay without sleeping.
func (p *Pacer) Next() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.min + time.Duration(p.rng.Int63n(int64(p.max-p.min)+1))
}

// Pause sleeps for the next delay.
func (p *Pacer) Pause(ctx context.Context) error {
	d := p.Next()
	if d <= 0 {
		return ctx.Err()
	}
	return p.sleep(ctx, d)
}

// Wait sleeps for exactly d through the pacer's sleep function.
func (p *Pacer) Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	return p.sleep(ctx, d)
}
