// Package iocontext carries the command's I/O streams through a context so
// tests can swap them.
package iocontext

import (
	"context"
	"io"
	"os"
)

// IO holds the streams a command reads from and writes to.
type IO struct {
	Out    io.Writer
	ErrOut io.Writer
	In     io.Reader
}

// DefaultIO returns the process streams.
func DefaultIO() *IO {
	return &IO{
		Out:    os.Stdout,
		ErrOut: os.Stderr,
		In:     os.Stdin,
	}
}

// Quiet returns a copy of s with stderr discarded and, when dropOut is set,
// stdout discarded too.
func (s *IO) Quiet(dropOut bool) *IO {
	quiet := *s
	quiet.ErrOut = io.Discard
	if dropOut {
		quiet.Out = io.Discard
	}
	return &quiet
}

type ioKey struct{}

// WithIO adds IO streams to a context.
func WithIO(ctx context.Context, streams *IO) context.Context {
	return context.WithValue(ctx, ioKey{}, streams)
}

// GetIO returns the context's streams, or the process streams when none
// were set.
func GetIO(ctx context.Context) *IO {
	if streams, ok := ctx.Value(ioKey{}).(*IO); ok && streams != nil {
		return streams
	}
	return DefaultIO()
}
