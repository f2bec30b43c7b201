package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"strconv"
	"time"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Target returns the day's number for a digit count: HMAC(salt, "YYYY-MM-DD/n")
// mapped onto [10^(n-1), 10^n - 1], so every player gets the same number and
// the leading digit is never zero.
func Target(date time.Time, salt string, digits int) string {
	if digits < 1 {
		return ""
	}
	if digits > 18 {
		digits = 18
	}
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(DateKey(date) + "/" + strconv.Itoa(digits)))
	sum := h.Sum(nil)
	// take first 8 bytes to uint64 for modulus distribution
	n := binary.BigEndian.Uint64(sum[:8])

	lo := uint64(1)
	for i := 1; i < digits; i++ {
		lo *= 10
	}
	span := lo*10 - lo
	return strconv.FormatUint(lo+n%span, 10)
}
