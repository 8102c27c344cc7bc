// Package conn owns the rueidis client lifecycle shared by the Redis and
// Valkey stores: dialing, liveness and readiness polling.
package conn

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/rueidis"
)

// ClientName is reported to the server via CLIENT SETNAME.
const ClientName = "vetsearch"

// readyPollInterval is the gap between readiness pings.
const readyPollInterval = 100 * time.Millisecond

// Options holds connection parameters.
type Options struct {
	Addrs    []string
	Username string
	Password string
	DB       int
	// Engine names the server in error messages ("redis", "valkey").
	Engine string
}

// Conn is a goroutine-safe handle on one Redis-protocol server.
type Conn struct {
	client rueidis.Client
	engine string
}

// Dial creates the rueidis client. The client connects lazily.
func Dial(opts Options) (*Conn, error) {
	if len(opts.Addrs) == 0 {
		return nil, errors.New("addrs is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  opts.Addrs,
		Username:     opts.Username,
		Password:     opts.Password,
		SelectDB:     opts.DB,
		ClientName:   ClientName,
		DisableCache: true,
		AlwaysRESP2:  true, // FT.SEARCH replies are parsed as RESP2 arrays
	})
	if err != nil {
		return nil, fmt.Errorf("create %s client: %w", opts.Engine, err)
	}
	return Wrap(client, opts.Engine), nil
}

// Wrap adopts an existing client, typically a rueidis mock in tests.
func Wrap(client rueidis.Client, engine string) *Conn {
	return &Conn{client: client, engine: engine}
}

// Ping checks connectivity.
func (c *Conn) Ping(ctx context.Context) error {
	if err := c.client.Do(ctx, c.client.B().Ping().Build()).Error(); err != nil {
		return fmt.Errorf("%s ping: %w", c.engine, err)
	}
	return nil
}

// WaitForReady pings until the server answers or timeout expires.
func (c *Conn) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(readyPollInterval)
	defer ticker.Stop()

	for {
		if err := c.Ping(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for %s: %w", c.engine, ctx.Err())
		case <-ticker.C:
		}
	}
}

// Close shuts down the client.
func (c *Conn) Close() {
	c.client.Close()
}

// Do runs one command.
func (c *Conn) Do(ctx context.Context, cmd rueidis.Completed) rueidis.RedisResult {
	return c.client.Do(ctx, cmd)
}

// B returns the command builder.
func (c *Conn) B() rueidis.Builder {
	return c.client.B()
}
