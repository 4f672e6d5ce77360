package natsclient

import (
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sifan077/bookmarks/config"
)

const defaultConnectTimeout = 5 * time.Second

// Connect opens a NATS connection and makes sure the search stream exists.
// A disabled config yields nil values and no error.
func Connect(cfg config.NATSConfig) (*nats.Conn, nats.JetStreamContext, error) {
	if !cfg.Enabled {
		return nil, nil, nil
	}

	opts := []nats.Option{
		nats.Timeout(defaultConnectTimeout),
		nats.Name("bookmarks"),
	}
	if cfg.User != "" {
		opts = append(opts, nats.UserInfo(cfg.User, cfg.Password))
	}

	conn, err := nats.Connect(URL(cfg), opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("nats: connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("nats: init jetstream: %w", err)
	}

	if err := ensureStream(js, cfg); err != nil {
		conn.Close()
		return nil, nil, err
	}

	return conn, js, nil
}

func ensureStream(js nats.JetStreamContext, cfg config.NATSConfig) error {
	_, err := js.StreamInfo(cfg.Stream)
	if err == nil {
		return nil
	}
	if !errors.Is(err, nats.ErrStreamNotFound) {
		return fmt.Errorf("nats: stream info %s: %w", cfg.Stream, err)
	}

	_, err = js.AddStream(&nats.StreamConfig{
		Name:     cfg.Stream,
		Subjects: []string{cfg.SubjectPrefix + ".>"},
		Storage:  nats.FileStorage,
	})
	if err != nil {
		return fmt.Errorf("nats: add stream %s: %w", cfg.Stream, err)
	}
	return nil
}

// URL renders the nats:// address for cfg.
func URL(cfg config.NATSConfig) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 4222
	}
	return fmt.Sprintf("nats://%s:%d", host, port)
}
