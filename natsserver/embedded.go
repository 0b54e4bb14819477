// Package natsserver provides an embedded NATS server for single-binary deployments
package natsserver

import (
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

// EmbeddedNATS wraps an embedded NATS server with a client connection
type EmbeddedNATS struct {
	server    *server.Server
	conn      *nats.Conn
	published uint64
	dropped   uint64
}

// Config holds configuration for the embedded NATS server
type Config struct {
	Host string
	// Port -1 picks a random free port
	Port       int
	MaxPayload int32
}

// DefaultConfig returns sensible defaults. 4233 avoids clashing with a
// local broker on the standard port.
func DefaultConfig() Config {
	return Config{
		Host:       "0.0.0.0",
		Port:       4233,
		MaxPayload: 1024 * 1024,
	}
}

// New creates and starts an embedded NATS server
func New(cfg Config) (*EmbeddedNATS, error) {
	if cfg.Host == "" {
		cfg.Host = "0.0.0.0"
	}
	if cfg.MaxPayload <= 0 {
		cfg.MaxPayload = 1024 * 1024
	}

	opts := &server.Options{
		Host:          cfg.Host,
		Port:          cfg.Port,
		NoLog:         true,
		NoSigs:        true,
		MaxPayload:    cfg.MaxPayload,
		WriteDeadline: 10 * time.Second,
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create NATS server: %w", err)
	}

	go ns.Start()

	if !ns.ReadyForConnections(5 * time.Second) {
		ns.Shutdown()
		return nil, fmt.Errorf("NATS server not ready after 5 seconds")
	}

	nc, err := nats.Connect(
		ns.ClientURL(),
		nats.Name("streetcred-internal"),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		ns.Shutdown()
		return nil, fmt.Errorf("failed to connect to embedded NATS: %w", err)
	}

	log.Printf("📡 Embedded NATS server started at %s", ns.ClientURL())

	return &EmbeddedNATS{
		server: ns,
		conn:   nc,
	}, nil
}

// Publish publishes a message to a subject
func (e *EmbeddedNATS) Publish(subject string, data []byte) error {
	if err := e.conn.Publish(subject, data); err != nil {
		atomic.AddUint64(&e.dropped, 1)
		return err
	}
	atomic.AddUint64(&e.published, 1)
	return nil
}

// Conn returns the internal client connection
func (e *EmbeddedNATS) Conn() *nats.Conn {
	return e.conn
}

// Address returns the client URL of the server
func (e *EmbeddedNATS) Address() string {
	return e.server.ClientURL()
}

// Stats holds NATS server statistics
type Stats struct {
	Clients       int    `json:"clients"`
	Subscriptions uint32 `json:"subscriptions"`
	Published     uint64 `json:"published"`
	Dropped       uint64 `json:"dropped"`
	InMsgs        int64  `json:"inMsgs"`
	OutMsgs       int64  `json:"outMsgs"`
}

// GetStats returns current server statistics
func (e *EmbeddedNATS) GetStats() Stats {
	varz, _ := e.server.Varz(nil)
	stats := Stats{
		Clients:       e.server.NumClients(),
		Subscriptions: e.server.NumSubscriptions(),
		Published:     atomic.LoadUint64(&e.published),
		Dropped:       atomic.LoadUint64(&e.dropped),
	}
	if varz != nil {
		stats.InMsgs = varz.InMsgs
		stats.OutMsgs = varz.OutMsgs
	}
	return stats
}

// Shutdown gracefully shuts down the NATS server
func (e *EmbeddedNATS) Shutdown() {
	if e.conn != nil {
		e.conn.Close()
	}
	if e.server != nil {
		e.server.Shutdown()
	}
	log.Println("📡 NATS server shut down")
}
