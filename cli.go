package main

import (
	"log"

	"github.com/qicorr/pkg/databox"
	"github.com/qicorr/pkg/qhw"
	"github.com/qicorr/pkg/task"
)

// runCLI executes one task and writes every published result group to disk as
// parquet plus a JSON metadata sidecar.
func runCLI(plat qhw.Platform, taskName string, params []uint32) {
	log.Printf("running task %s with %d parameter word(s)", taskName, len(params))

	sink := databox.NewSink(config.SinkDepth)
	env := &task.Env{Platform: plat, Sink: sink, Report: qhw.LogReporter{}}

	errc := make(chan error, 1)
	go func() {
		errc <- task.Run(env, taskName, params)
		sink.Close()
	}()

	groups := 0
	for g := range sink.Groups() {
		name, err := writeGroupParquet(config.Output, taskName, params, groups, g)
		if err != nil {
			log.Printf("write group %d: %v", groups, err)
		} else {
			log.Printf("group %d (%d boxes) -> %s", groups, len(g.Boxes), name)
		}
		groups++
	}

	if err := <-errc; err != nil {
		log.Fatalf("task %s: %v", taskName, err)
	}
	log.Printf("task %s finished, %d group(s) written", taskName, groups)
}
