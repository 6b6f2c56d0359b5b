package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Room:
		o.printRoom(v)
	case Stats:
		o.printStats(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Player response type (matches API)
type Player struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	IsDead bool   `json:"is_dead"`
}

// Room response type
type Room struct {
	ID        string    `json:"id"`
	Passcode  string    `json:"passcode,omitempty"`
	Players   []Player  `json:"players"`
	Started   bool      `json:"started"`
	Phase     string    `json:"phase"`
	CreatedAt time.Time `json:"created_at"`
}

// Stats response type
type Stats struct {
	TotalRooms   int `json:"total_rooms"`
	ActiveGames  int `json:"active_games"`
	TotalPlayers int `json:"total_players"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printRoom(r Room) {
	fmt.Printf("Room: %s\n", r.ID)
	if r.Passcode != "" {
		fmt.Printf("Passcode: %s\n", r.Passcode)
	}
	status := "waiting for players"
	if r.Started {
		status = fmt.Sprintf("in progress (%s)", r.Phase)
	}
	fmt.Printf("Status: %s\n", status)
	fmt.Printf("Created: %s\n", r.CreatedAt.Format(time.RFC3339))

	if len(r.Players) == 0 {
		fmt.Println("Players: none")
		return
	}
	fmt.Printf("Players (%d):\n", len(r.Players))
	for _, p := range r.Players {
		marker := ""
		if p.IsDead {
			marker = " [dead]"
		}
		fmt.Printf("  %s%s\n", p.Name, marker)
	}
}

func (o *Output) printStats(s Stats) {
	fmt.Printf("Rooms: %d\n", s.TotalRooms)
	fmt.Printf("Active games: %d\n", s.ActiveGames)
	fmt.Printf("Players: %d\n", s.TotalPlayers)
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", strings.ToUpper(h.Status))
}
