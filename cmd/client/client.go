package main

import (
	"encoding/json"
	"flag"
	"log"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"
)

// Submits one task to a running engine and prints every frame it broadcasts
// until the task finishes.
func main() {
	host := flag.String("host", "localhost:8080", "engine address")
	taskName := flag.String("task", "g1-fft", "task to run")
	params := flag.String("params", "16,1,0,32,1", "comma-separated parameter words")
	flag.Parse()

	var words []uint32
	for _, field := range strings.Split(*params, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		v, err := strconv.ParseUint(field, 10, 32)
		if err != nil {
			log.Fatalf("parameter %q: %v", field, err)
		}
		words = append(words, uint32(v))
	}

	u := url.URL{Scheme: "ws", Host: *host, Path: "/ws"}
	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer c.Close()

	req := map[string]interface{}{
		"type":   "run_task",
		"task":   *taskName,
		"params": words,
	}
	if err := c.WriteJSON(req); err != nil {
		log.Fatal("send:", err)
	}

	for {
		_, msg, err := c.ReadMessage()
		if err != nil {
			return
		}
		var frame struct {
			Type  string `json:"type"`
			Error string `json:"error"`
		}
		if err := json.Unmarshal(msg, &frame); err != nil {
			continue
		}
		log.Printf("%s", msg)
		if frame.Type == "task_done" {
			if frame.Error != "" {
				log.Fatalf("task failed: %s", frame.Error)
			}
			return
		}
	}
}
