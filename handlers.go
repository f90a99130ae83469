package main

import (
	"encoding/json"
	"net/http"

	"github.com/qicorr/pkg/task"
)

// handleStatus reports what the engine is currently doing.
func handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(statusMessage())
}

// handleTasks lists the runnable tasks.
func handleTasks(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"tasks": task.Names(),
	})
}
