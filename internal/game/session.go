package game

import (
	"strconv"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/mkwasowski/robots/internal/protocol"
)

// session is the concurrency envelope of spec.md section 4.5: the shared
// mutable state behind one running (or lobby-waiting) game, partitioned
// into the three locks the spec names so they can be taken in a fixed
// order (clients -> players -> turns) and never any other.
//
// The retention log (spec.md section 4.3, "Retention") is kept in a
// patrickmn/go-cache instance rather than a plain slice: a TTL-less cache
// gives the same "append forever, clear at finish_game" lifecycle as the
// source's turn log, and was already the idiom this codebase reaches for
// to hold server-authoritative records in memory (see DESIGN.md).
type session struct {
	cfg Config

	clientsMu sync.Mutex
	clients   map[string]*clientInfo

	playersMu  sync.Mutex
	players    map[uint8]*playerInfo
	nextPlayer uint8
	lobbyFull  *sync.Cond

	turnsMu sync.Mutex
	turns   *gocache.Cache
}

func newSession(cfg Config) *session {
	s := &session{
		cfg:     cfg,
		clients: make(map[string]*clientInfo),
		players: make(map[uint8]*playerInfo),
		turns:   gocache.New(gocache.NoExpiration, time.Hour),
	}
	s.lobbyFull = sync.NewCond(&s.playersMu)
	return s
}

// reset clears all per-game state at finish_game, leaving the session
// ready for a fresh lobby. Still-connected clients keep their entry in
// the clients map (only their playerID/intent are cleared) and must
// rejoin with a fresh Join to be admitted into the next game; ghost
// players (disconnected but never removed from a prior game) simply
// don't carry over, since players is rebuilt empty.
func (s *session) reset() {
	s.playersMu.Lock()
	s.players = make(map[uint8]*playerInfo)
	s.nextPlayer = 0
	s.playersMu.Unlock()

	s.clientsMu.Lock()
	for _, c := range s.clients {
		c.playerID = nil
		c.hasIntent = false
	}
	s.clientsMu.Unlock()

	s.turnsMu.Lock()
	s.turns.Flush()
	s.turnsMu.Unlock()
}

func (s *session) addClient(c *clientInfo) {
	s.clientsMu.Lock()
	s.clients[c.addr] = c
	s.clientsMu.Unlock()
}

func (s *session) removeClient(addr string) {
	s.clientsMu.Lock()
	delete(s.clients, addr)
	s.clientsMu.Unlock()
}

// admit assigns the next player_id to c and records it in the roster. It
// must be called with neither clientsMu nor playersMu held by the
// caller; it takes them itself in the declared order. c.playerID is
// written here under clientsMu (not just playersMu) so that isAdmitted
// can read it under clientsMu alone without racing this write.
func (s *session) admit(c *clientInfo, name string) (uint8, bool) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	s.playersMu.Lock()
	defer s.playersMu.Unlock()

	if len(s.players) >= int(s.cfg.PlayersCount) {
		return 0, false
	}
	id := s.nextPlayer
	s.nextPlayer++
	s.players[id] = &playerInfo{player: protocol.Player{Name: name, Address: c.addr}}
	c.playerID = &id

	if len(s.players) == int(s.cfg.PlayersCount) {
		s.lobbyFull.Broadcast()
	}
	return id, true
}

// isAdmitted reports whether c has already been assigned a player_id
// for the current game. Reset at finish_game (reset, below), so a
// persistent client that played a prior game can rejoin the next
// lobby.
func (s *session) isAdmitted(c *clientInfo) bool {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	return c.playerID != nil
}

// waitForLobbyFull blocks until the admitted-player count reaches
// players_count.
func (s *session) waitForLobbyFull() {
	s.playersMu.Lock()
	for len(s.players) < int(s.cfg.PlayersCount) {
		s.lobbyFull.Wait()
	}
	s.playersMu.Unlock()
}

// roster returns a shallow copy of the current player_id -> Player
// mapping, safe to hand to the wire codec.
func (s *session) roster() map[uint8]protocol.Player {
	s.playersMu.Lock()
	defer s.playersMu.Unlock()
	out := make(map[uint8]protocol.Player, len(s.players))
	for id, p := range s.players {
		out[id] = p.player
	}
	return out
}

// latchIntent records c's most recent ClientMessage as its intent for
// the upcoming turn.
func (s *session) latchIntent(c *clientInfo, msg protocol.ClientMessage) {
	s.clientsMu.Lock()
	c.lastIntent = msg
	c.hasIntent = true
	s.clientsMu.Unlock()
}

// takeIntents drains every admitted client's latched intent, keyed by
// player_id, and clears them for the next turn.
func (s *session) takeIntents() map[uint8]protocol.ClientMessage {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	out := make(map[uint8]protocol.ClientMessage)
	for _, c := range s.clients {
		if c.playerID == nil || !c.hasIntent {
			continue
		}
		out[*c.playerID] = c.lastIntent
		c.hasIntent = false
	}
	return out
}

func (s *session) recordTurn(turn uint16, msg protocol.ServerMessage) {
	s.turnsMu.Lock()
	defer s.turnsMu.Unlock()
	s.turns.Set(strconv.Itoa(int(turn)), msg, gocache.NoExpiration)
}
