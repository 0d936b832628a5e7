package media

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"

	"github.com/dmitrijs2005/accountkeeper/internal/logging"
)

// BreakerUploader stops calling the media host after consecutive failures
// and fails fast with gobreaker.ErrOpenState until the timeout elapses.
type BreakerUploader struct {
	next Uploader
	cb   *gobreaker.CircuitBreaker
}

func NewBreakerUploader(next Uploader, logger logging.Logger) *BreakerUploader {
	st := gobreaker.Settings{
		Name:        "media",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			// caller mistakes say nothing about the host's health
			return err == nil || errors.Is(err, ErrEmptyFile) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn(context.Background(), "circuit breaker state", "name", name, "from", from.String(), "to", to.String())
		},
	}
	return &BreakerUploader{next: next, cb: gobreaker.NewCircuitBreaker(st)}
}

func (b *BreakerUploader) Upload(ctx context.Context, f *File) (*Asset, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Upload(ctx, f)
	})
	if err != nil {
		return nil, err
	}
	return res.(*Asset), nil
}

func (b *BreakerUploader) Delete(ctx context.Context, key string) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.next.Delete(ctx, key)
	})
	return err
}

// State reports the current breaker state.
func (b *BreakerUploader) State() gobreaker.State {
	return b.cb.State()
}
