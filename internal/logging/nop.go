package logging

import "context"

// NopLogger discards everything. Useful as a default and in tests.
type NopLogger struct{}

func NewNopLogger() *NopLogger { return &NopLogger{} }

func (n *NopLogger) Debug(_ context.Context, _ string, _ ...any) {}
func (n *NopLogger) Info(_ context.Context, _ string, _ ...any)  {}
func (n *NopLogger) Warn(_ context.Context, _ string, _ ...any)  {}
func (n *NopLogger) Error(_ context.Context, _ string, _ ...any) {}
func (n *NopLogger) With(_ ...any) Logger                        { return n }
