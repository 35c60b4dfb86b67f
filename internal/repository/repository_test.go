package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tapolio/tapolio-server/internal/model"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.InterviewResult{}, &model.PaymentEvent{}))
	return db
}

func TestInterviewResultRoundTrip(t *testing.T) {
	repo := NewInterviewResultRepository(newTestDB(t))
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	result := &model.InterviewResult{
		SessionID:    "1700000000000abc",
		Topic:        "React",
		ClientID:     "1.2.3.4",
		Questions:    []string{"q1", "q2"},
		Answers:      []string{"a1", "a2"},
		Scores:       []int{7, 9},
		AverageScore: 8,
		StartedAt:    now,
		CompletedAt:  now.Add(time.Minute),
	}
	require.NoError(t, repo.Create(result))
	require.NoError(t, repo.Create(&model.InterviewResult{SessionID: "1700000000000abc", Topic: "React"}),
		"duplicate archive is ignored")

	got, err := repo.FindBySessionID("1700000000000abc")
	require.NoError(t, err)
	assert.Equal(t, []int{7, 9}, got.Scores)
	assert.Equal(t, []string{"q1", "q2"}, got.Questions)
	assert.Equal(t, "1.2.3.4", got.ClientID)
}

func TestPaymentEventRecordIsIdempotent(t *testing.T) {
	repo := NewPaymentEventRepository(newTestDB(t))

	created, err := repo.Record(&model.PaymentEvent{CheckoutSessionID: "cs_test_1", UserID: "u1", Credits: 25, Source: model.PaymentSourceWebhook})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.Record(&model.PaymentEvent{CheckoutSessionID: "cs_test_1", UserID: "u1", Credits: 25, Source: model.PaymentSourceVerify})
	require.NoError(t, err)
	assert.False(t, created)

	got, err := repo.FindByCheckoutSessionID("cs_test_1")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentSourceWebhook, got.Source)
	assert.Equal(t, 25, got.Credits)
}

func TestFindMissing(t *testing.T) {
	repo := NewPaymentEventRepository(newTestDB(t))
	_, err := repo.FindByCheckoutSessionID("nope")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
