package main

import (
	"sync"
)

// Server state
type ServerState struct {
	mu sync.RWMutex

	// Task execution (strictly one at a time)
	TaskRunning bool
	TaskName    string
	Progress    int // acquisition rounds (or states) completed
	LastError   string

	// System
	CellCount int
	Simulated bool
}

var serverState = &ServerState{}

// ResultMetadata represents the metadata saved alongside a result file
type ResultMetadata struct {
	Timestamp string   `json:"timestamp"`
	Task      string   `json:"task"`
	Params    []uint32 `json:"params"`
	Boxes     []string `json:"boxes"`
}
