package ordernum

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/atomic"

	"fulfillment-engine/internal/models"
)

// Number format: <prefix><sequence %07d><shipments digit>.
// The prefix makes test numbers impossible to mistake for production ones;
// the trailing digit records how many physical shipments the order needs
// (0 = unknown/single).
const (
	prefixProduction = "FF"
	prefixTest       = "TF"
	seqWidth         = 7
)

var ErrMalformed = fmt.Errorf("malformed order number")

// Allocator owns the per-environment sequence counter. All increments go
// through Allocate; the raw counter is never exposed.
type Allocator struct {
	env models.Environment
	seq *atomic.Int64
}

// NewAllocator seeds the counter with the highest sequence already issued
// for the environment, so restarts never reuse a number.
func NewAllocator(env models.Environment, lastSeq int64) *Allocator {
	return &Allocator{env: env, seq: atomic.NewInt64(lastSeq)}
}

func (a *Allocator) Allocate() string {
	n := a.seq.Inc()
	return Format(a.env, n, 0)
}

func Format(env models.Environment, seq int64, shipments int) string {
	p := prefixProduction
	if env == models.EnvTest {
		p = prefixTest
	}
	return fmt.Sprintf("%s%0*d%d", p, seqWidth, seq, shipments)
}

// WithShipments rewrites the trailing shipments digit of an already
// allocated number.
func WithShipments(number string, shipments int) (string, error) {
	if shipments < 0 || shipments > 9 {
		return "", fmt.Errorf("shipments %d out of range", shipments)
	}
	env, seq, _, err := Parse(number)
	if err != nil {
		return "", err
	}
	return Format(env, seq, shipments), nil
}

func Parse(number string) (models.Environment, int64, int, error) {
	var env models.Environment
	switch {
	case strings.HasPrefix(number, prefixProduction):
		env = models.EnvProduction
	case strings.HasPrefix(number, prefixTest):
		env = models.EnvTest
	default:
		return "", 0, 0, ErrMalformed
	}

	body := number[len(prefixProduction):]
	if len(body) != seqWidth+1 {
		return "", 0, 0, ErrMalformed
	}

	seq, err := strconv.ParseInt(body[:seqWidth], 10, 64)
	if err != nil {
		return "", 0, 0, ErrMalformed
	}
	shipments, err := strconv.Atoi(body[seqWidth:])
	if err != nil {
		return "", 0, 0, ErrMalformed
	}
	return env, seq, shipments, nil
}
