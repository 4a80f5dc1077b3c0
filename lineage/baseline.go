package lineage

import "time"

// baseline is captured once while the package initializes and never
// changes for the life of the process.
var baseline = time.Now()

// Baseline returns the process start timestamp.
func Baseline() time.Time { return baseline }
