package booking

import (
	"crypto/rand"
	"math/big"
)

const (
	bookingIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	bookingIDLength   = 10
	maxIDAttempts     = 5
)

// NewBookingID returns a random 10 character token over [A-Z0-9].
func NewBookingID() (string, error) {
	limit := big.NewInt(int64(len(bookingIDAlphabet)))
	buf := make([]byte, bookingIDLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		buf[i] = bookingIDAlphabet[n.Int64()]
	}
	return string(buf), nil
}
