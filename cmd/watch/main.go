// Watch - tail spotter state transitions from a terminal
//
// Connects to a running spotter instance's state stream and prints
// each transition. Useful for debugging the orchestrator without a
// browser.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

func main() {
	addr := flag.String("addr", "localhost:8080", "spotter host:port")
	flag.Parse()

	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws/state"}
	fmt.Printf("Connecting to %s...\n", u.String())

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: connect failed: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nBye!")
		conn.Close()
		os.Exit(0)
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: read failed: %v\n", err)
			os.Exit(1)
		}

		var st struct {
			Mode          string `json:"mode"`
			SessionActive bool   `json:"session_active"`
			Analyzing     bool   `json:"analyzing"`
			Detecting     bool   `json:"detecting"`
			Result        *struct {
				Subject       string `json:"subject"`
				Movement      string `json:"movement"`
				ConfidencePct int    `json:"confidence_pct"`
			} `json:"result"`
			Detections []struct {
				Label string `json:"label"`
			} `json:"detections"`
			Banner string `json:"banner"`
			Error  string `json:"error"`
		}
		if err := json.Unmarshal(msg, &st); err != nil {
			continue
		}

		line := fmt.Sprintf("[%s] mode=%s session=%v", time.Now().Format("15:04:05"), st.Mode, st.SessionActive)
		if st.Analyzing {
			line += " analyzing"
		}
		if st.Detecting {
			line += fmt.Sprintf(" detecting objects=%d", len(st.Detections))
		}
		if st.Result != nil {
			line += fmt.Sprintf(" | %s %s (%d%%)", st.Result.Subject, st.Result.Movement, st.Result.ConfidencePct)
		}
		if st.Banner != "" {
			line += fmt.Sprintf(" | banner=%q", st.Banner)
		}
		if st.Error != "" {
			line += " | error=" + st.Error
		}
		fmt.Println(line)
	}
}
