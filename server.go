package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/qicorr/pkg/databox"
	"github.com/qicorr/pkg/qhw"
	"github.com/qicorr/pkg/task"
)

// WebSocket clients
var (
	wsClients   = make(map[*Client]bool)
	wsClientsMu sync.RWMutex
)

type Client struct {
	conn *websocket.Conn
	send chan interface{}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	defer func() {
		c.conn.Close()
	}()
	for msg := range c.send {
		switch v := msg.(type) {
		case []byte:
			if err := c.conn.WriteMessage(websocket.BinaryMessage, v); err != nil {
				return
			}
		default:
			if err := c.conn.WriteJSON(v); err != nil {
				return
			}
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// runMessage is the client -> server control frame.
type runMessage struct {
	Type   string   `json:"type"`
	Task   string   `json:"task"`
	Params []uint32 `json:"params"`
}

// runServer starts the WebSocket control server.
func runServer(port int, plat qhw.Platform) {
	serverState.mu.Lock()
	serverState.CellCount = len(plat.Cells())
	serverState.mu.Unlock()

	upgrader := websocket.Upgrader{
		CheckOrigin:     func(r *http.Request) bool { return true },
		ReadBufferSize:  1024,
		WriteBufferSize: 65536,
	}

	// API endpoints
	http.HandleFunc("/api/status", handleStatus)
	http.HandleFunc("/api/tasks", handleTasks)

	// WebSocket control endpoint
	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("Upgrade:", err)
			return
		}

		log.Println("Client connected")

		client := &Client{conn: conn, send: make(chan interface{}, 256)}

		// Register client
		wsClientsMu.Lock()
		wsClients[client] = true
		wsClientsMu.Unlock()

		// Start write pump
		go client.writePump()

		defer func() {
			wsClientsMu.Lock()
			delete(wsClients, client)
			wsClientsMu.Unlock()
			close(client.send) // This will stop writePump
			log.Println("Client disconnected")
		}()

		// Handle incoming control messages from client (read pump)
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var req runMessage
			if err := json.Unmarshal(msg, &req); err != nil {
				continue
			}
			switch req.Type {
			case "run_task":
				startTask(plat, req.Task, req.Params)
			case "status":
				client.send <- statusMessage()
			}
		}
	})

	addr := fmt.Sprintf(":%d", port)
	log.Printf("Correlation engine listening on http://localhost%s", addr)
	log.Printf("Cells: %d", len(plat.Cells()))
	log.Fatal(http.ListenAndServe(addr, nil))
}

// startTask launches the requested task unless one is already running. Tasks
// are strictly serialized on the hardware; a rejected request is answered with
// a task_rejected frame and the running task is left alone.
func startTask(plat qhw.Platform, name string, params []uint32) {
	serverState.mu.Lock()
	if serverState.TaskRunning {
		running := serverState.TaskName
		serverState.mu.Unlock()
		broadcastJSON(map[string]interface{}{
			"type":   "task_rejected",
			"task":   name,
			"reason": fmt.Sprintf("task %s is still running", running),
		})
		return
	}
	serverState.TaskRunning = true
	serverState.TaskName = name
	serverState.Progress = 0
	serverState.LastError = ""
	serverState.mu.Unlock()

	sink := databox.NewSink(config.SinkDepth)
	env := &task.Env{Platform: plat, Sink: sink, Report: &wsReporter{task: name}}

	go func() {
		for g := range sink.Groups() {
			broadcastJSON(groupMessage(g))
		}
	}()

	go func() {
		err := task.Run(env, name, params)
		sink.Close()

		serverState.mu.Lock()
		serverState.TaskRunning = false
		if err != nil {
			serverState.LastError = err.Error()
		}
		serverState.mu.Unlock()

		done := map[string]interface{}{"type": "task_done", "task": name}
		if err != nil {
			done["error"] = err.Error()
			done["config_error"] = task.IsParamError(err)
		}
		broadcastJSON(done)
	}()
}

// groupMessage converts one published group into a result_group frame.
func groupMessage(g databox.Group) map[string]interface{} {
	boxes := make([]map[string]interface{}, 0, len(g.Boxes))
	for _, b := range g.Boxes {
		entry := map[string]interface{}{"name": b.Name()}
		if b.Int64s != nil {
			entry["values"] = b.Int64s
		} else {
			entry["words"] = b.Words
		}
		boxes = append(boxes, entry)
	}
	return map[string]interface{}{
		"type":  "result_group",
		"task":  g.Task,
		"boxes": boxes,
	}
}

func statusMessage() map[string]interface{} {
	serverState.mu.RLock()
	defer serverState.mu.RUnlock()
	return map[string]interface{}{
		"type":         "status",
		"task_running": serverState.TaskRunning,
		"task":         serverState.TaskName,
		"progress":     serverState.Progress,
		"last_error":   serverState.LastError,
		"cells":        serverState.CellCount,
		"simulated":    serverState.Simulated,
	}
}

// wsReporter forwards task telemetry to every connected client.
type wsReporter struct {
	task string
}

func (r *wsReporter) SetProgress(n int) {
	serverState.mu.Lock()
	serverState.Progress = n
	serverState.mu.Unlock()
	broadcastJSON(map[string]interface{}{
		"type":  "progress",
		"task":  r.task,
		"count": n,
	})
}

func (r *wsReporter) Errorf(fatal bool, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	log.Printf("task %s: %s", r.task, msg)
	serverState.mu.Lock()
	serverState.LastError = msg
	serverState.mu.Unlock()
	broadcastJSON(map[string]interface{}{
		"type":    "task_error",
		"task":    r.task,
		"fatal":   fatal,
		"message": msg,
	})
}

func broadcastJSON(msg interface{}) {
	wsClientsMu.RLock()
	defer wsClientsMu.RUnlock()

	for client := range wsClients {
		select {
		case client.send <- msg:
		default:
		}
	}
}
