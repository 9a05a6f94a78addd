// Package main provides a command line client for testing.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
)

var (
	app       = kingpin.New("groovebox-cli", "groovebox client for testing")
	server    = app.Flag("server", "Server address").Default("http://localhost:8080").String()
	session   = app.Flag("session", "Session ID").Default("default").String()
	requester = app.Flag("requester", "Requester ID").Default("cli").String()
	name      = app.Flag("name", "Requester display name").Default("cli user").String()

	// play command
	playCmd = app.Command("play", "Resolve a reference and add it to the queue")
	playRef = playCmd.Arg("reference", "URL, playlist URL, catalog link, or search text").Required().String()

	// queue command
	queueCmd = app.Command("queue", "Open a paginated queue view")

	// page navigation
	nextCmd    = app.Command("next", "Next page of a queue view")
	nextViewID = nextCmd.Arg("view-id", "View ID").Required().String()
	prevCmd    = app.Command("prev", "Previous page of a queue view")
	prevViewID = prevCmd.Arg("view-id", "View ID").Required().String()

	// queue edits
	removeCmd   = app.Command("remove", "Remove one track or a range from the queue")
	removeStart = removeCmd.Arg("start", "1-based position").Required().Int()
	removeEnd   = removeCmd.Arg("end", "Optional end position (inclusive)").Int()

	moveCmd  = app.Command("move", "Move a track to another position")
	moveFrom = moveCmd.Arg("from", "1-based source position").Required().Int()
	moveTo   = moveCmd.Arg("to", "1-based destination position").Required().Int()

	shuffleCmd = app.Command("shuffle", "Shuffle the queue")

	// playback controls
	skipCmd   = app.Command("skip", "Skip the current track")
	pauseCmd  = app.Command("pause", "Pause playback")
	resumeCmd = app.Command("resume", "Resume playback")
	stopCmd   = app.Command("stop", "Clear the queue and stop playback")

	loopCmd  = app.Command("loop", "Set the loop mode")
	loopMode = loopCmd.Arg("mode", "off, track, or queue").Required().Enum("off", "track", "queue")

	volumeCmd   = app.Command("volume", "Set the playback volume")
	volumeValue = volumeCmd.Arg("volume", "Volume between 0 and 1").Required().Float64()

	npCmd = app.Command("np", "Show the current track")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	var body map[string]any
	switch command {
	case playCmd.FullCommand():
		body = post("queue", map[string]any{
			"reference":      *playRef,
			"requester_id":   *requester,
			"requester_name": *name,
		})
		added := body["added"].([]any)
		fmt.Printf("Added %d tracks\n", len(added))
		for _, item := range added {
			t := item.(map[string]any)
			fmt.Printf("  %s (%s)\n", t["title"], t["page_url"])
		}

	case queueCmd.FullCommand():
		body = call(http.MethodGet, fmt.Sprintf("%s/v1/sessions/%s/queue?requester_id=%s", *server, *session, *requester), nil)
		fmt.Println(body["page"])
		fmt.Printf("View ID: %s\n", body["view_id"])

	case nextCmd.FullCommand():
		body = call(http.MethodPost, fmt.Sprintf("%s/v1/views/%s/next", *server, *nextViewID), map[string]any{"requester_id": *requester})
		fmt.Println(body["page"])

	case prevCmd.FullCommand():
		body = call(http.MethodPost, fmt.Sprintf("%s/v1/views/%s/previous", *server, *prevViewID), map[string]any{"requester_id": *requester})
		fmt.Println(body["page"])

	case removeCmd.FullCommand():
		body = call(http.MethodDelete, fmt.Sprintf("%s/v1/sessions/%s/queue", *server, *session), map[string]any{
			"start": *removeStart,
			"end":   *removeEnd,
		})
		removed := body["removed"].([]any)
		fmt.Printf("Removed %d tracks\n", len(removed))

	case moveCmd.FullCommand():
		body = post("queue/move", map[string]any{"from": *moveFrom, "to": *moveTo})
		t := body["moved"].(map[string]any)
		fmt.Printf("Moved %s to position %d\n", t["title"], *moveTo)

	case shuffleCmd.FullCommand():
		body = post("queue/shuffle", nil)
		fmt.Printf("Shuffled %v tracks\n", body["shuffled"])

	case skipCmd.FullCommand():
		post("skip", nil)
		fmt.Println("Skipped")

	case pauseCmd.FullCommand():
		post("pause", nil)
		fmt.Println("Paused")

	case resumeCmd.FullCommand():
		post("resume", nil)
		fmt.Println("Resumed")

	case stopCmd.FullCommand():
		body = post("stop", nil)
		fmt.Printf("Stopped, cleared %v tracks\n", body["cleared"])

	case loopCmd.FullCommand():
		body = call(http.MethodPut, fmt.Sprintf("%s/v1/sessions/%s/loop", *server, *session), map[string]any{"mode": *loopMode})
		fmt.Printf("Loop mode: %s\n", body["mode"])

	case volumeCmd.FullCommand():
		call(http.MethodPut, fmt.Sprintf("%s/v1/sessions/%s/volume", *server, *session), map[string]any{"volume": *volumeValue})
		fmt.Printf("Volume: %.2f\n", *volumeValue)

	case npCmd.FullCommand():
		body = call(http.MethodGet, fmt.Sprintf("%s/v1/sessions/%s/now-playing", *server, *session), nil)
		if body["playing"] != true {
			fmt.Println("Nothing is playing.")
			return
		}
		t := body["track"].(map[string]any)
		fmt.Printf("Now Playing: %s (%v/%vs) requested by %s\n",
			t["title"], body["elapsed_sec"], t["duration_sec"], t["requester_name"])
	}
}

// post sends a session-scoped POST and returns the decoded body.
func post(action string, payload map[string]any) map[string]any {
	return call(http.MethodPost, fmt.Sprintf("%s/v1/sessions/%s/%s", *server, *session, action), payload)
}

func call(method, url string, payload map[string]any) map[string]any {
	var buf bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&buf).Encode(payload); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	}

	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		fmt.Printf("Error: failed to decode response: %v\n", err)
		os.Exit(1)
	}

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Rejected [%d]: %v\n", resp.StatusCode, body["error"])
		os.Exit(1)
	}
	return body
}
