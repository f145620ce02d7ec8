package transport

import (
	"bufio"
	"context"
	"io"
	"os"
	"sync"

	"github.com/felixgeelhaar/jrpc-go/protocol"
)

// Stdio implements a newline-delimited JSON-RPC transport over stdin/stdout.
// Responses are written as their dispatches complete, which may not match
// the order requests arrived in.
type Stdio struct {
	in  io.Reader
	out io.Writer

	writeMu sync.Mutex
	wg      sync.WaitGroup
}

// StdioOption configures a Stdio transport.
type StdioOption func(*Stdio)

// WithStdin sets a custom input reader.
func WithStdin(r io.Reader) StdioOption {
	return func(s *Stdio) {
		s.in = r
	}
}

// WithStdout sets a custom output writer.
func WithStdout(w io.Writer) StdioOption {
	return func(s *Stdio) {
		s.out = w
	}
}

// NewStdio creates a new stdio transport.
func NewStdio(opts ...StdioOption) *Stdio {
	s := &Stdio{
		in:  os.Stdin,
		out: os.Stdout,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Addr returns the transport address.
func (s *Stdio) Addr() string {
	return "stdio"
}

// Serve starts processing messages from the input reader, one per line.
// It returns on EOF, read error or context cancellation, after waiting for
// in-flight dispatches to write their responses.
func (s *Stdio) Serve(ctx context.Context, handler Handler) error {
	scanner := bufio.NewScanner(s.in)

	lines := make(chan []byte)
	scanErr := make(chan error, 1)

	go func() {
		for scanner.Scan() {
			line := make([]byte, len(scanner.Bytes()))
			copy(line, scanner.Bytes())
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			scanErr <- err
		}
		close(lines)
	}()

	defer s.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-scanErr:
			return err
		case line, ok := <-lines:
			if !ok {
				return nil // EOF
			}
			s.handleLine(ctx, handler, line)
		}
	}
}

func (s *Stdio) handleLine(ctx context.Context, handler Handler, line []byte) {
	pending, err := handler.HandleMessage(ctx, line)
	if err != nil {
		// Failed before an id could be trusted; respond with a null id.
		s.writeResponse(envelope(err))
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		resp, err := pending.Await(ctx)
		if err != nil || pending.Notification() {
			return
		}
		s.writeResponse(resp)
	}()
}

func (s *Stdio) writeResponse(resp *protocol.Response) {
	data, err := protocol.EncodeResponse(resp)
	if err != nil {
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_, _ = s.out.Write(data)
	_, _ = s.out.Write([]byte("\n"))
}
