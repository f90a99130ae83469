// Package task implements the controller's acquisition tasks: the four
// single-function correlation measurements, the combined g1/g2 measurement
// with periodic phase recalibration, and dense state-history collection.
//
// Tasks run strictly one at a time. Each task decodes its raw parameter words
// before touching any hardware, paces the platform through the sequencer's
// busy flag, and publishes results exclusively through the databox sink so
// consumers always observe complete groups.
package task

import (
	"sort"

	"github.com/qicorr/pkg/databox"
	"github.com/qicorr/pkg/qhw"
)

// StatesPerWord is how many qubit states the storage module packs into one
// 32-bit word in dense mode.
const StatesPerWord = 32

// Env bundles everything a task touches besides its parameters.
type Env struct {
	Platform qhw.Platform
	Sink     *databox.Sink
	Report   qhw.Reporter
}

// Func is a runnable task. A returned ParamError means no hardware was
// touched and no boxes were created.
type Func func(env *Env, params []uint32) error

var registry = map[string]Func{
	"g1-fft":          runG1FFT,
	"g2-fft":          runG2FFT,
	"g1-direct":       runG1Direct,
	"g2-direct":       runG2Direct,
	"correlation-all": runCorrelationAll,
	"state-collect":   runStateCollect,
}

// Run executes the named task.
func Run(env *Env, name string, params []uint32) error {
	fn, ok := registry[name]
	if !ok {
		return paramErrorf("unknown task %q", name)
	}
	return fn(env, params)
}

// Names lists the available tasks in stable order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
