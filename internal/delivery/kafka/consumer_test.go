package kafka

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"fulfillment-engine/internal/models"
	"fulfillment-engine/internal/service"
)

type engineStub struct {
	handle func(ctx context.Context, payload []byte) error
}

func (s *engineStub) HandleMessage(ctx context.Context, payload []byte) error {
	return s.handle(ctx, payload)
}

func (s *engineStub) Reconcile(context.Context, models.Order, *models.FflRecord) (models.OrderProjection, error) {
	return models.OrderProjection{}, nil
}

func (s *engineStub) ClearHold(context.Context, string, uint) (models.OrderProjection, error) {
	return models.OrderProjection{}, nil
}

func (s *engineStub) GetCachedProjection(string) (models.OrderProjection, error) {
	return models.OrderProjection{}, nil
}

func (s *engineStub) GetAllCachedProjections() ([]models.OrderProjection, error) { return nil, nil }

func (s *engineStub) GetDbOrder(string) (models.Order, error) { return models.Order{}, nil }

func (s *engineStub) GetSubmissions(string) ([]models.DistributorSubmission, error) {
	return nil, nil
}

func (s *engineStub) WarmProjections() error { return nil }

var _ service.Engine = (*engineStub)(nil)

func newTestConsumer(t *testing.T, cfg Config, svc service.Engine) *Consumer {
	t.Helper()
	if len(cfg.Brokers) == 0 {
		cfg.Brokers = []string{"localhost:9092"}
	}
	if cfg.Topic == "" {
		cfg.Topic = "paid-orders"
	}
	c := NewConsumer(cfg, svc)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNewConsumer_NormalizesConfig(t *testing.T) {
	c := newTestConsumer(t, Config{MaxRetries: -3}, &engineStub{})
	require.Equal(t, 0, c.cfg.MaxRetries)
	require.Equal(t, 200*time.Millisecond, c.cfg.BaseBackoff)
	require.Nil(t, c.dlq)

	c = newTestConsumer(t, Config{DLQ: "paid-orders.dlq", MaxRetries: 5, BaseBackoff: time.Second}, &engineStub{})
	require.Equal(t, 5, c.cfg.MaxRetries)
	require.Equal(t, time.Second, c.cfg.BaseBackoff)
	require.NotNil(t, c.dlq)
}

func TestProcess_RetriesTransientErrorsUpToLimit(t *testing.T) {
	calls := 0
	svc := &engineStub{handle: func(context.Context, []byte) error {
		calls++
		return errors.New("distributor unreachable")
	}}
	c := newTestConsumer(t, Config{MaxRetries: 2, BaseBackoff: time.Millisecond}, svc)

	ok, err := c.process(context.Background(), []byte(`{}`))
	require.False(t, ok)
	require.EqualError(t, err, "distributor unreachable")
	require.Equal(t, 3, calls)
}

func TestProcess_RecoversWhenRetrySucceeds(t *testing.T) {
	calls := 0
	svc := &engineStub{handle: func(context.Context, []byte) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}}
	c := newTestConsumer(t, Config{MaxRetries: 5, BaseBackoff: time.Millisecond}, svc)

	ok, err := c.process(context.Background(), []byte(`{}`))
	require.True(t, ok)
	require.NoError(t, err)
	require.Equal(t, 3, calls)
}

func TestProcess_ValidationFailureGoesStraightToDeadLetter(t *testing.T) {
	calls := 0
	svc := &engineStub{handle: func(context.Context, []byte) error {
		calls++
		return errors.Wrap(service.ErrValidation, "missing order id")
	}}
	c := newTestConsumer(t, Config{MaxRetries: 5, BaseBackoff: time.Millisecond}, svc)

	ok, err := c.process(context.Background(), []byte(`{"id":""}`))
	require.False(t, ok)
	require.ErrorIs(t, err, service.ErrValidation)
	require.Equal(t, 1, calls, "validation errors must not be retried")
}

func TestIsNonRetryable(t *testing.T) {
	require.True(t, isNonRetryable(service.ErrDecode))
	require.True(t, isNonRetryable(errors.Wrap(service.ErrValidation, "bad event")))
	require.True(t, isNonRetryable(errors.Wrap(service.ErrEscalated, "order FF00000011")))
	require.False(t, isNonRetryable(errors.New("connection refused")))
	require.False(t, isNonRetryable(context.DeadlineExceeded))
}

func TestBackoff(t *testing.T) {
	base := 200 * time.Millisecond
	require.Equal(t, time.Duration(0), backoff(0, base))
	require.Equal(t, 200*time.Millisecond, backoff(1, base))
	require.Equal(t, 400*time.Millisecond, backoff(2, base))
	require.Equal(t, 800*time.Millisecond, backoff(3, base))
	require.Equal(t, 5*time.Second, backoff(10, base))
}

func TestTrimErr(t *testing.T) {
	require.Equal(t, "", trimErr(nil))
	require.Equal(t, "boom", trimErr(errors.New("boom")))

	long := errors.New(strings.Repeat("x", 2000))
	require.Len(t, trimErr(long), 1000)
}
