// internal/wallet/wallet.go
package wallet

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidAmount     = errors.New("wallet: amount must be positive")
	ErrInvalidRecipient  = errors.New("wallet: recipient address is empty")
	ErrInsufficientFunds = errors.New("wallet: insufficient funds")
)

// Transfer is one completed token movement out of a wallet.
type Transfer struct {
	TxID   string    `json:"txId"`
	From   string    `json:"from"`
	To     string    `json:"to"`
	Amount int64     `json:"amount"`
	At     time.Time `json:"at"`
}

// MockWallet simulates an on-chain wallet with an in-memory ledger.
// Transfers settle immediately and always get a fresh transaction id.
type MockWallet struct {
	address string
	log     logrus.FieldLogger

	mu       sync.Mutex
	balance  int64
	received map[string]int64
	history  []Transfer
}

// NewMockWallet returns a wallet holding balance tokens.
func NewMockWallet(address string, balance int64, log logrus.FieldLogger) *MockWallet {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &MockWallet{
		address:  address,
		log:      log.WithField("wallet", address),
		balance:  balance,
		received: make(map[string]int64),
	}
}

func (w *MockWallet) PublicAddress() string { return w.address }

// Balance returns the tokens left in the wallet.
func (w *MockWallet) Balance() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.balance
}

// Received returns the total this wallet has sent to recipient.
func (w *MockWallet) Received(recipient string) int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.received[recipient]
}

// History returns the completed transfers, oldest first.
func (w *MockWallet) History() []Transfer {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]Transfer(nil), w.history...)
}

// SendTokens moves amount tokens to recipient and returns the transaction id.
func (w *MockWallet) SendTokens(ctx context.Context, recipient string, amount int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if recipient == "" {
		return "", ErrInvalidRecipient
	}
	if amount <= 0 {
		return "", ErrInvalidAmount
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.balance < amount {
		w.log.Warnf("Transfer of %d to %s refused, balance %d.", amount, recipient, w.balance)
		return "", ErrInsufficientFunds
	}
	w.balance -= amount
	w.received[recipient] += amount

	tx := Transfer{
		TxID:   uuid.NewString(),
		From:   w.address,
		To:     recipient,
		Amount: amount,
		At:     time.Now(),
	}
	w.history = append(w.history, tx)
	w.log.WithField("tx", tx.TxID).Debugf("Sent %d tokens to %s.", amount, recipient)
	return tx.TxID, nil
}
