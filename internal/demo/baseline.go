package demo

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/mgomes/lineage/lineage"
)

var baselineDemo = Demo{
	Name:    "baseline",
	Summary: "process-wide timestamp captured once at start-up",
	specs:   noSpecs,
	run: func(_ context.Context, _ *lineage.Dispatcher, w io.Writer) error {
		fmt.Fprintf(w, "baseline: %s\n", lineage.Baseline().Format(time.RFC3339Nano))
		return nil
	},
}
