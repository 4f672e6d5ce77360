package util

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidSession = errors.New("invalid or expired session")
	ErrMissingSecret  = errors.New("session secret is not configured")
)

const sessionPayloadLen = 12 // 4 bytes expiry + 8 bytes user id

// SessionSigner issues and checks the HMAC-signed session cookie that carries the user id.
type SessionSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSessionSigner(secret []byte, ttl time.Duration) *SessionSigner {
	return &SessionSigner{
		secret: secret,
		ttl:    ttl,
		now:    time.Now,
	}
}

// TTL is how long issued sessions stay valid.
func (s *SessionSigner) TTL() time.Duration { return s.ttl }

// Issue mints a session token for userID.
func (s *SessionSigner) Issue(userID uint) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrMissingSecret
	}

	payload := make([]byte, sessionPayloadLen)
	binary.BigEndian.PutUint32(payload[:4], uint32(s.now().Add(s.ttl).Unix()))
	binary.BigEndian.PutUint64(payload[4:], uint64(userID))

	payloadEnc := base64.RawURLEncoding.EncodeToString(payload)
	sigEnc := base64.RawURLEncoding.EncodeToString(s.sign(payload)[:16])
	return fmt.Sprintf("%s.%s", payloadEnc, sigEnc), nil
}

// Parse verifies the token and returns the user id it was issued for.
func (s *SessionSigner) Parse(token string) (uint, error) {
	if len(s.secret) == 0 {
		return 0, ErrMissingSecret
	}

	payloadEnc, sigEnc, ok := strings.Cut(token, ".")
	if !ok {
		return 0, ErrInvalidSession
	}
	payload, err := base64.RawURLEncoding.DecodeString(payloadEnc)
	if err != nil || len(payload) != sessionPayloadLen {
		return 0, ErrInvalidSession
	}
	sig, err := base64.RawURLEncoding.DecodeString(sigEnc)
	if err != nil || len(sig) != 16 {
		return 0, ErrInvalidSession
	}
	if !hmac.Equal(sig, s.sign(payload)[:16]) {
		return 0, ErrInvalidSession
	}

	expires := binary.BigEndian.Uint32(payload[:4])
	if s.now().Unix() > int64(expires) {
		return 0, ErrInvalidSession
	}
	userID := binary.BigEndian.Uint64(payload[4:])
	if userID == 0 {
		return 0, ErrInvalidSession
	}
	return uint(userID), nil
}

func (s *SessionSigner) sign(payload []byte) []byte {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte("session|"))
	mac.Write(payload)
	return mac.Sum(nil)
}
