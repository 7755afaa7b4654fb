// Package game implements the authoritative server simulation (spec.md
// section 4.3) and the client's event-driven world mirror (section 4.4),
// on top of internal/protocol's wire codec and framed stream reader.
package game

import (
	"net"
	"time"

	"github.com/mkwasowski/robots/internal/protocol"
)

// Config holds the parameters that fully determine one game's rules. The
// server CLI and the client CLI each populate the subset they own; see
// internal/config.
type Config struct {
	ServerName      string
	PlayersCount    uint8
	SizeX           uint16
	SizeY           uint16
	GameLength      uint16
	ExplosionRadius uint16
	BombTimer       uint16
	InitialBlocks   uint16
	TurnDuration    time.Duration
	Seed            int64
}

// ServerState is the server's top-level state machine (spec.md section
// 4.3): Lobby accepts joins, Maintenance is the single-turn transition
// that seeds the board, Playing runs the per-turn loop.
type ServerState int

const (
	StateLobby ServerState = iota
	StateMaintenance
	StatePlaying
)

func (s ServerState) String() string {
	switch s {
	case StateLobby:
		return "lobby"
	case StateMaintenance:
		return "maintenance"
	case StatePlaying:
		return "playing"
	default:
		return "unknown"
	}
}

// clientInfo is one admitted or not-yet-admitted TCP connection, as seen
// by the server. playerID is nil until the connection's first Join is
// accepted.
type clientInfo struct {
	conn       net.Conn
	addr       string
	playerID   *uint8
	lastIntent protocol.ClientMessage
	hasIntent  bool
}

// playerInfo is the server's authoritative per-player simulation state.
type playerInfo struct {
	player   protocol.Player
	position protocol.Position
	score    uint32
}
