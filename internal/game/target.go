package game

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"
	"strconv"
)

// TargetFunc produces a target number with the given digit count.
type TargetFunc func(digits int) (string, error)

// RandomTarget draws uniformly from [10^(n-1), 10^n - 1], so the leading digit
// is never zero.
func RandomTarget(digits int) (string, error) {
	if digits < 1 || digits > 18 {
		return "", invalid("digitCount", "cannot generate a %d-digit target", digits)
	}
	lo := pow10(digits - 1)
	span := big.NewInt(pow10(digits) - lo)
	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(lo+n.Int64(), 10), nil
}

// FixedTargets returns a TargetFunc that hands out the given targets in order
// and then repeats the last one. Used for seeded games and tests.
func FixedTargets(targets ...string) TargetFunc {
	i := 0
	return func(digits int) (string, error) {
		if len(targets) == 0 {
			return RandomTarget(digits)
		}
		t := targets[i]
		if i < len(targets)-1 {
			i++
		}
		if len(t) != digits {
			return "", invalid("target", "%q is not %d digits", t, digits)
		}
		return t, ValidateDigits("target", t)
	}
}

func pow10(n int) int64 {
	v := int64(1)
	for i := 0; i < n; i++ {
		v *= 10
	}
	return v
}

// randomID returns a compact 16-hex-char identifier.
func randomID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
