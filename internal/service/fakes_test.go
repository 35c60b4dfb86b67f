package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
	"github.com/tapolio/tapolio-server/internal/model"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fakeLLM answers by purpose. A missing script entry returns "".
type fakeLLM struct {
	mu      sync.Mutex
	replies map[string][]string
	errs    map[string]error
	calls   []CompletionRequest
}

func newFakeLLM() *fakeLLM {
	return &fakeLLM{replies: map[string][]string{}, errs: map[string]error{}}
}

func (f *fakeLLM) on(purpose string, replies ...string) *fakeLLM {
	f.replies[purpose] = append(f.replies[purpose], replies...)
	return f
}

func (f *fakeLLM) fail(purpose string, err error) *fakeLLM {
	f.errs[purpose] = err
	return f
}

func (f *fakeLLM) Complete(_ context.Context, req CompletionRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if err := f.errs[req.Purpose]; err != nil {
		return "", err
	}
	q := f.replies[req.Purpose]
	if len(q) == 0 {
		return "", nil
	}
	out := q[0]
	if len(q) > 1 {
		f.replies[req.Purpose] = q[1:]
	}
	return out, nil
}

func (f *fakeLLM) count(purpose string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Purpose == purpose {
			n++
		}
	}
	return n
}

func (f *fakeLLM) last(purpose string) CompletionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.calls) - 1; i >= 0; i-- {
		if f.calls[i].Purpose == purpose {
			return f.calls[i]
		}
	}
	return CompletionRequest{}
}

type published struct {
	key     string
	payload any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []published
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, routingKey string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, published{key: routingKey, payload: payload})
	return nil
}

func (p *fakePublisher) Close() error { return nil }

type fakeGateway struct {
	created  *stripe.CheckoutSessionParams
	sessions map[string]*stripe.CheckoutSession
	err      error
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	if g.err != nil {
		return nil, g.err
	}
	g.created = params
	return &stripe.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.stripe.test/cs_test_1"}, nil
}

func (g *fakeGateway) GetCheckoutSession(_ context.Context, id string) (*stripe.CheckoutSession, error) {
	if g.err != nil {
		return nil, g.err
	}
	sess, ok := g.sessions[id]
	if !ok {
		return nil, fmt.Errorf("no such checkout session: %s", id)
	}
	return sess, nil
}

var errModelDown = errors.New("model unavailable")

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.InterviewResult{}, &model.PaymentEvent{}))
	return db
}
