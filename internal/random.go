package internal

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strconv"
	"time"
)

const (
	receiptClockDigits  = 6
	receiptRandomDigits = 3
)

// ReceiptGenerator produces receipt numbers of the form <clock><random>: the
// last six digits of the epoch-millisecond clock followed by three random digits.
type ReceiptGenerator struct {
	now  func() time.Time
	rand io.Reader
}

// NewReceiptGenerator returns a generator using the wall clock and crypto/rand.
func NewReceiptGenerator() *ReceiptGenerator {
	return &ReceiptGenerator{
		now:  time.Now,
		rand: rand.Reader,
	}
}

// NewReceiptGeneratorWith returns a generator with injected clock and entropy.
func NewReceiptGeneratorWith(now func() time.Time, r io.Reader) *ReceiptGenerator {
	if now == nil {
		now = time.Now
	}
	if r == nil {
		r = rand.Reader
	}
	return &ReceiptGenerator{now: now, rand: r}
}

// Next returns a fresh nine-digit receipt number.
func (g *ReceiptGenerator) Next() (string, error) {
	ms := strconv.FormatInt(g.now().UnixMilli(), 10)
	if len(ms) > receiptClockDigits {
		ms = ms[len(ms)-receiptClockDigits:]
	}

	n, err := rand.Int(g.rand, big.NewInt(1000))
	if err != nil {
		return "", fmt.Errorf("receipt entropy: %w", err)
	}

	out := fmt.Sprintf("%0*s%0*d", receiptClockDigits, ms, receiptRandomDigits, n.Int64())
	if len(out) != receiptClockDigits+receiptRandomDigits {
		return "", errors.New("invalid receipt number length")
	}
	return out, nil
}
