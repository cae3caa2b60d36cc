package ase

import (
	"encoding/json"
	"time"
)

// Player is one decoded player record.
type Player struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
	Ping  int    `json:"ping"`
}

// Roster is the ordered, read-only list of players in wire order.
type Roster struct {
	players []Player
}

// NewRoster copies players into a roster.
func NewRoster(players []Player) Roster {
	if len(players) == 0 {
		return Roster{}
	}
	cp := make([]Player, len(players))
	copy(cp, players)
	return Roster{players: cp}
}

// Len returns the number of players.
func (r Roster) Len() int { return len(r.players) }

// At returns the i-th player in wire order.
func (r Roster) At(i int) Player { return r.players[i] }

// Players returns a copy of the roster entries.
func (r Roster) Players() []Player {
	cp := make([]Player, len(r.players))
	copy(cp, r.players)
	return cp
}

// MarshalJSON encodes the roster as a plain array (never null).
func (r Roster) MarshalJSON() ([]byte, error) {
	if r.players == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(r.players)
}

// UnmarshalJSON decodes a roster from a plain array.
func (r *Roster) UnmarshalJSON(data []byte) error {
	var players []Player
	if err := json.Unmarshal(data, &players); err != nil {
		return err
	}
	*r = NewRoster(players)
	return nil
}

// ServerInfo holds the metadata fields that precede the rules section.
// Values are reported as sent; numeric ones are parsed leniently.
type ServerInfo struct {
	Port       int    `json:"port"`
	Name       string `json:"name"`
	GameMode   string `json:"game_mode"`
	Map        string `json:"map"`
	Version    string `json:"version"`
	Passworded bool   `json:"passworded"`
	Players    int    `json:"players"`
	MaxPlayers int    `json:"max_players"`
}

// StopReason tells why the player decoder ended. None of them is an error.
type StopReason uint8

const (
	// StopExhausted means the buffer ended on a record boundary.
	StopExhausted StopReason = iota
	// StopInvalidPrefix means a prefix byte carried a bit outside PlayerPrefixMask.
	StopInvalidPrefix
	// StopTruncatedRecord means a record ran past the end of the buffer.
	StopTruncatedRecord
)

func (s StopReason) String() string {
	switch s {
	case StopExhausted:
		return "exhausted"
	case StopInvalidPrefix:
		return "invalid_prefix"
	case StopTruncatedRecord:
		return "truncated_record"
	default:
		return "unknown"
	}
}

// MarshalText encodes the reason by name.
func (s StopReason) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Result is the successful outcome of a query.
type Result struct {
	Server  ServerInfo    `json:"server"`
	Roster  Roster        `json:"players"`
	Variant string        `json:"variant"`
	Elapsed time.Duration `json:"elapsed_ns,omitempty"`
	Rules   int           `json:"rules"`
	Bytes   int           `json:"bytes"`
	Stop    StopReason    `json:"stop"`
}
