package printer

import (
	"context"
	"os"
)

// ConsolePrinter is the default printer, replaced in main with one that
// writes through the deferred stdout writer.
var ConsolePrinter = New(os.Stdout)

func Ctx(ctx context.Context) *Printer {
	return ConsolePrinter.Ctx(ctx)
}
