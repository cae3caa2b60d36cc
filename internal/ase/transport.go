package ase

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"
)

// Exchange sends the variant's query to host:(port+QueryPortOffset) and waits
// for a single reply datagram. The socket is closed before returning.
func Exchange(ctx context.Context, host string, port int, v Variant, timeout time.Duration, bufferSize int) ([]byte, error) {
	queryPort := port + QueryPortOffset
	if port <= 0 || queryPort > 65535 {
		return nil, &Error{Kind: KindNetwork, Stage: StageTransport, Detail: fmt.Sprintf("invalid game port %d", port)}
	}
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "udp4", net.JoinHostPort(host, strconv.Itoa(queryPort)))
	if err != nil {
		return nil, transportError(ctx, "dial", err)
	}
	defer func() { _ = conn.Close() }()

	deadline := time.Now().Add(timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return nil, transportError(ctx, "deadline", err)
	}

	// Cancellation interrupts the pending read.
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	if _, err := conn.Write(v.Query); err != nil {
		return nil, transportError(ctx, "write", err)
	}

	buf := make([]byte, bufferSize)
	n, err := conn.Read(buf)
	if err != nil {
		return nil, transportError(ctx, "read", err)
	}

	return buf[:n], nil
}

func transportError(ctx context.Context, op string, err error) *Error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return &Error{Kind: KindTimeout, Stage: StageTransport, Detail: op, Err: ctx.Err()}
	case ctx.Err() != nil:
		return &Error{Kind: KindNetwork, Stage: StageTransport, Detail: op, Err: ctx.Err()}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: KindTimeout, Stage: StageTransport, Detail: op}
	}

	return &Error{Kind: KindNetwork, Stage: StageTransport, Detail: op, Err: err}
}
