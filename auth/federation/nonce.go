package federation

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

// NonceWindow is how far a nonce timestamp may drift from the verifier's clock.
const NonceWindow = 120 * time.Second

// ErrNonceInvalid is returned for any nonce that does not verify.
var ErrNonceInvalid = errors.New("federation: invalid nonce")

// Nonce returns "{unix seconds}:{hex(HMAC-SHA256(secret, email:ts))}".
func Nonce(secret []byte, email string, now time.Time) string {
	ts := strconv.FormatInt(now.Unix(), 10)
	return ts + ":" + hex.EncodeToString(sign(secret, email, ts))
}

// VerifyNonce checks a challenge answer produced by Nonce.
func VerifyNonce(secret []byte, email, answer string, now time.Time) error {
	ts, mac, ok := strings.Cut(answer, ":")
	if !ok {
		return ErrNonceInvalid
	}
	sec, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return ErrNonceInvalid
	}
	drift := now.Sub(time.Unix(sec, 0))
	if drift < -NonceWindow || drift > NonceWindow {
		return ErrNonceInvalid
	}
	got, err := hex.DecodeString(mac)
	if err != nil {
		return ErrNonceInvalid
	}
	if !hmac.Equal(got, sign(secret, email, ts)) {
		return ErrNonceInvalid
	}
	return nil
}

func sign(secret []byte, email, ts string) []byte {
	h := hmac.New(sha256.New, secret)
	h.Write([]byte(email + ":" + ts))
	return h.Sum(nil)
}
