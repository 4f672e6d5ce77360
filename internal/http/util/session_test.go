package util

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionSigner_RoundTrip(t *testing.T) {
	s := NewSessionSigner([]byte("secret"), time.Hour)
	assert.Equal(t, time.Hour, s.TTL())

	token, err := s.Issue(42)
	require.NoError(t, err)

	id, err := s.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)
}

func TestSessionSigner_Rejects(t *testing.T) {
	s := NewSessionSigner([]byte("secret"), time.Hour)
	token, err := s.Issue(7)
	require.NoError(t, err)

	other := NewSessionSigner([]byte("other"), time.Hour)
	_, err = other.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidSession)

	payload, sig, _ := strings.Cut(token, ".")
	tampered := payload[:len(payload)-1] + "A" + "." + sig
	if tampered != token {
		_, err = s.Parse(tampered)
		assert.ErrorIs(t, err, ErrInvalidSession)
	}

	for _, bad := range []string{"", "nodot", "a.b", token + "x"} {
		_, err = s.Parse(bad)
		assert.ErrorIs(t, err, ErrInvalidSession, bad)
	}
}

func TestSessionSigner_Expired(t *testing.T) {
	s := NewSessionSigner([]byte("secret"), time.Minute)
	s.now = func() time.Time { return time.Now().Add(-2 * time.Minute) }
	token, err := s.Issue(1)
	require.NoError(t, err)

	s.now = time.Now
	_, err = s.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestSessionSigner_MissingSecret(t *testing.T) {
	s := NewSessionSigner(nil, time.Hour)
	_, err := s.Issue(1)
	assert.ErrorIs(t, err, ErrMissingSecret)
	_, err = s.Parse("x.y")
	assert.ErrorIs(t, err, ErrMissingSecret)
}
