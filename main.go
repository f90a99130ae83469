package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/qicorr/pkg/qhw"
	"github.com/qicorr/pkg/task"
)

// paramsFlag parses the comma-separated raw parameter words of a task.
type paramsFlag []uint32

func (p *paramsFlag) String() string {
	parts := make([]string, len(*p))
	for i, v := range *p {
		parts[i] = strconv.FormatUint(uint64(v), 10)
	}
	return strings.Join(parts, ",")
}

func (p *paramsFlag) Set(value string) error {
	*p = nil
	for _, field := range strings.Split(value, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		v, err := strconv.ParseUint(field, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid parameter word %q", field)
		}
		*p = append(*p, uint32(v))
	}
	return nil
}

func main() {
	// Common flags
	device := flag.String("d", "", "Controller device path (overrides config file)")
	cells := flag.Int("cells", 0, "Number of unit cells (overrides config file)")

	// CLI-specific flags
	taskName := flag.String("task", "", "Task to run (CLI mode only)")
	var params paramsFlag
	flag.Var(&params, "params", "Comma-separated task parameter words (CLI mode only)")
	outputBase := flag.String("o", "", "Output file base name (CLI mode only)")

	// Server-specific flags
	isServer := flag.Bool("server", false, "Run in WebSocket server mode")
	port := flag.Int("p", 0, "Port to listen on (Server mode only)")

	// Simulation flags
	isSim := flag.Bool("sim", false, "Run against the simulated platform")

	// Custom usage message
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "  CLI Mode:    go run . -task <name> -params <words> [options]")
		fmt.Fprintln(os.Stderr, "  Server Mode: go run . -server [options]")
		fmt.Fprintln(os.Stderr, "  Sim Mode:    add -sim to either mode")
		fmt.Fprintf(os.Stderr, "\nTasks: %s\n", strings.Join(task.Names(), ", "))
		fmt.Fprintln(os.Stderr, "\nOptions:")
		flag.PrintDefaults()
	}

	flag.Parse()

	if !loadConfig() {
		log.Printf("config file qicorr.toml not found, using defaults")
	}
	if *device != "" {
		config.Device = *device
	}
	if *cells > 0 {
		config.Cells = *cells
	}
	if *port > 0 {
		config.Port = *port
	}
	if *outputBase != "" {
		config.Output = *outputBase
	}

	plat, closePlatform, err := openPlatform(*isSim, params)
	if err != nil {
		log.Fatalf("open platform: %v", err)
	}
	defer closePlatform()

	serverState.mu.Lock()
	serverState.Simulated = *isSim
	serverState.mu.Unlock()

	if *isServer {
		runServer(config.Port, plat)
	} else {
		if *taskName == "" {
			flag.Usage()
			os.Exit(2)
		}
		runCLI(plat, *taskName, params)
	}
}

// openPlatform maps the controller registers, or builds the simulator in -sim
// mode. The simulator's storage producer is armed with the requested state
// count so that state collection behaves like a real run.
func openPlatform(sim bool, params []uint32) (qhw.Platform, func(), error) {
	if sim {
		p := qhw.NewSimPlatform(config.Cells)
		if len(params) > 0 {
			p.StateWords = int(params[0] / task.StatesPerWord)
		}
		return p, func() {}, nil
	}

	dev, err := qhw.OpenDevice(config.Device, config.Cells)
	if err != nil {
		return nil, nil, err
	}
	return dev, func() { dev.Close() }, nil
}
