// Package ntp measures the local clock offset against an SNTP server.
package ntp

import (
	"context"
	"fmt"
	"net"
	"time"

	sntp "github.com/beevik/ntp"
)

// Version is the protocol version sent in requests.
const Version = 3

// Offset queries host once and returns the server clock minus the local clock.
// host may include a port; 123 is used otherwise. Replies that fail
// validation (kiss-o'-death, unsynchronized leap indicator, stale or
// dispersed server clock) are errors, never measurements.
func Offset(ctx context.Context, host string, timeout time.Duration) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if d, ok := ctx.Deadline(); ok {
		timeout = min(timeout, time.Until(d))
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	resp, err := sntp.QueryWithOptions(host, sntp.QueryOptions{
		Timeout: timeout,
		Version: Version,
		Dialer:  contextDialer(ctx),
	})
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, fmt.Errorf("ntp: query %s: %w", host, err)
	}

	if err := resp.Validate(); err != nil {
		return 0, fmt.Errorf("ntp: %s: %w", host, err)
	}

	return resp.ClockOffset, nil
}

// contextDialer dials UDP and closes the connection when ctx is done, which
// unblocks the pending read.
func contextDialer(ctx context.Context) func(localAddress, remoteAddress string) (net.Conn, error) {
	return func(_, remoteAddress string) (net.Conn, error) {
		var dialer net.Dialer
		conn, err := dialer.DialContext(ctx, "udp", remoteAddress)
		if err != nil {
			return nil, err
		}

		context.AfterFunc(ctx, func() { _ = conn.Close() })
		return conn, nil
	}
}
