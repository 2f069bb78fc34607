package realtime

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Backoff параметры переподключения.
// Задержка растёт экспоненциально от Initial с множителем Multiplier,
// не превышает Max и размывается на ±Jitter (доля от 0 до 1).
// Общего лимита времени нет: канал переподключается, пока его держат.
type Backoff struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
	Jitter     float64
}

// DefaultBackoff 1s, x2, до 60s, ±50%.
var DefaultBackoff = Backoff{
	Initial:    time.Second,
	Max:        time.Minute,
	Multiplier: 2,
	Jitter:     0.5,
}

func (p Backoff) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.Initial
	b.MaxInterval = p.Max
	b.Multiplier = p.Multiplier
	b.RandomizationFactor = p.Jitter
	b.MaxElapsedTime = 0
	b.Reset()

	return b
}

// normalize подставляет значения по умолчанию на место невалидных.
func (p Backoff) normalize() Backoff {
	if p.Initial <= 0 {
		p.Initial = DefaultBackoff.Initial
	}
	if p.Max < p.Initial {
		p.Max = p.Initial
	}
	if p.Multiplier < 1 {
		p.Multiplier = DefaultBackoff.Multiplier
	}
	if p.Jitter < 0 || p.Jitter > 1 {
		p.Jitter = DefaultBackoff.Jitter
	}

	return p
}
