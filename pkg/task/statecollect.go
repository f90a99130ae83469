package task

import (
	"fmt"

	"github.com/qicorr/pkg/databox"
	"github.com/qicorr/pkg/ringdrain"
)

// runStateCollect streams densely packed qubit states out of the selected
// cells' storage ring buffers while their sequencers run. The hardware offers
// no flow control, so the drainer keeps up by polling; a run that ends with
// fewer records than requested is reported as a non-fatal shortfall and the
// partial buffers are published anyway.
func runStateCollect(env *Env, params []uint32) error {
	cells := env.Platform.Cells()
	p, err := DecodeStateCollectParams(params, len(cells))
	if err != nil {
		return err
	}

	words := int(p.Repetitions / StatesPerWord)

	boxes := make([]*databox.Box, 0, len(p.Cells))
	channels := make([]*ringdrain.Channel, 0, len(p.Cells))
	for _, idx := range p.Cells {
		stg := cells[idx].Storage
		stg.SetBRAMControl(0, true, true)
		stg.SetStateConfig(0, true, true, true)

		box := env.Sink.AcquireWords(fmt.Sprintf("states_cell%d", idx), words)
		boxes = append(boxes, box)
		channels = append(channels, &ringdrain.Channel{
			NextAddress: func() uint32 { return stg.NextAddress(0) },
			Buffer:      stg.BRAM(0),
			Out:         box.Words,
		})
	}

	env.Platform.WaitWhileBusy()
	env.Platform.Start(p.Cells)

	d := &ringdrain.Drainer{
		Busy:     env.Platform.AnyBusy,
		Channels: channels,
		Progress: func(w int) { env.Report.SetProgress(w * StatesPerWord) },
	}
	d.Run()

	for k, ch := range channels {
		if got := ch.Count(); got < words {
			env.Report.Errorf(false,
				"cell %d delivered %d of %d states, publishing the partial result",
				p.Cells[k], got*StatesPerWord, p.Repetitions)
		}
	}
	env.Sink.FinishGroup("state-collect", boxes...)
	return nil
}
