package hotelbeds

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strconv"
	"time"
)

// Credentials is the Hotelbeds key/secret pair. It never renders its values
// through fmt or slog.
type Credentials struct {
	Key    string
	Secret string
}

// String implements fmt.Stringer with the secret material redacted.
func (c Credentials) String() string { return "hotelbeds.Credentials{[REDACTED]}" }

// LogValue implements slog.LogValuer.
func (c Credentials) LogValue() slog.Value { return slog.StringValue("[REDACTED]") }

// Signature is the X-Signature header value and the second it was computed for.
// The upstream rejects stale timestamps, so a Signature is valid for one request only.
type Signature struct {
	Digest    string
	Timestamp int64
}

// Sign returns hex(sha256(key + secret + nowSeconds)).
func Sign(key, secret string, nowSeconds int64) Signature {
	sum := sha256.Sum256([]byte(key + secret + strconv.FormatInt(nowSeconds, 10)))
	return Signature{Digest: hex.EncodeToString(sum[:]), Timestamp: nowSeconds}
}

// Sign signs with the whole seconds of now.
func (c Credentials) Sign(now time.Time) Signature {
	return Sign(c.Key, c.Secret, now.Unix())
}
