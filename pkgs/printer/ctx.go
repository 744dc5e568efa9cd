package printer

import (
	"context"
	"io"
)

type ctxkey string

const writerKey = ctxkey("writerKey")

// WithWriter stores the writer used by [Ctx] to build a printer.
func WithWriter(ctx context.Context, writer io.Writer) context.Context {
	return context.WithValue(ctx, writerKey, writer)
}

// GetWriter returns the writer stored on the context, if any.
func GetWriter(ctx context.Context) (io.Writer, bool) {
	w, ok := ctx.Value(writerKey).(io.Writer)
	return w, ok
}
