package pkg

import (
	"crypto/rand"
	"encoding/base64"
	"time"
	"unsafe"
)

// DateLayout is the calendar-date format used for all day-level grouping keys.
const DateLayout = "2006-01-02"

// BytesToString converts bytes slice to a string without extra allocation
func BytesToString(buf []byte) string {
	return *(*string)(unsafe.Pointer(&buf))
}

// DayKey truncates a timestamp to its calendar-date component.
// Two records on the same day, regardless of time, share the same key.
func DayKey(t time.Time) string {
	return t.Format(DateLayout)
}

// GenerateRandomBytes returns securely generated random bytes.
// It will return an error if the system's secure random
// number generator fails to function correctly, in which
// case the caller should not continue
func GenerateRandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// GenerateRandomString returns a URL-safe, base64 encoded
// securely generated random string.
func GenerateRandomString(s int) (string, error) {
	b, err := GenerateRandomBytes(s)
	return base64.URLEncoding.EncodeToString(b), err
}
