package qhw

import (
	"log"
	"math"
)

// Reporter carries task telemetry out of the engine: a monotonic progress
// counter and structured error reports with a fatal/non-fatal classification.
type Reporter interface {
	SetProgress(n int)
	Errorf(fatal bool, format string, args ...interface{})
}

// LogReporter writes telemetry to the standard logger.
type LogReporter struct{}

func (LogReporter) SetProgress(n int) {}

func (LogReporter) Errorf(fatal bool, format string, args ...interface{}) {
	level := "error"
	if fatal {
		level = "fatal error"
	}
	log.Printf("task %s: "+format, append([]interface{}{level}, args...)...)
}

// CalcPhaseOffsetReg converts a small-angle Q/I ratio into phase-offset
// register units (full turn = 65536). Wrapping at 2 pi happens implicitly
// through the uint16 overflow when the caller applies the correction.
func CalcPhaseOffsetReg(ratio float64) uint16 {
	turns := math.Atan(ratio) / (2 * math.Pi)
	return uint16(int32(math.Round(turns * 65536)))
}
