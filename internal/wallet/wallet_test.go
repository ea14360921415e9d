package wallet

import (
	"context"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWallet(balance int64) *MockWallet {
	logger, _ := logtest.NewNullLogger()
	return NewMockWallet("treasury", balance, logger)
}

func TestSendTokens(t *testing.T) {
	w := newTestWallet(100)
	assert.Equal(t, "treasury", w.PublicAddress())

	tx1, err := w.SendTokens(context.Background(), "alice", 30)
	require.NoError(t, err)
	tx2, err := w.SendTokens(context.Background(), "alice", 20)
	require.NoError(t, err)
	assert.NotEqual(t, tx1, tx2)

	assert.Equal(t, int64(50), w.Balance())
	assert.Equal(t, int64(50), w.Received("alice"))

	hist := w.History()
	require.Len(t, hist, 2)
	assert.Equal(t, tx1, hist[0].TxID)
	assert.Equal(t, "treasury", hist[0].From)
	assert.Equal(t, "alice", hist[0].To)
	assert.Equal(t, int64(30), hist[0].Amount)
}

func TestSendTokens_Rejected(t *testing.T) {
	w := newTestWallet(10)

	_, err := w.SendTokens(context.Background(), "", 1)
	assert.ErrorIs(t, err, ErrInvalidRecipient)
	_, err = w.SendTokens(context.Background(), "bob", 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = w.SendTokens(context.Background(), "bob", 11)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = w.SendTokens(ctx, "bob", 1)
	assert.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, int64(10), w.Balance())
	assert.Empty(t, w.History())
}

func TestSendTokens_Concurrent(t *testing.T) {
	w := NewMockWallet("treasury", 100, logrus.New())

	var wg sync.WaitGroup
	for i := 0; i < 150; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = w.SendTokens(context.Background(), "winner", 1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(0), w.Balance())
	assert.Equal(t, int64(100), w.Received("winner"))
	assert.Len(t, w.History(), 100)
}
