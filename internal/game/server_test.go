package game

import (
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/mkwasowski/robots/internal/protocol"
)

func newTestServer(cfg Config) *Server {
	log := logrus.New()
	log.SetOutput(discardWriter{})
	return NewServer(cfg, log)
}

func TestResolveTurnMoveInBounds(t *testing.T) {
	s := newTestServer(Config{SizeX: 5, SizeY: 5, PlayersCount: 1})
	s.session.players[0] = &playerInfo{position: protocol.Position{X: 2, Y: 2}}

	events := s.resolveTurn(map[uint8]protocol.ClientMessage{
		0: protocol.NewMoveMessage(uint8(protocol.Right)),
	})

	if len(events) != 1 {
		t.Fatalf("expected one event, got %d", len(events))
	}
	moved := events[0].PlayerMoved
	if moved == nil || moved.Position != (protocol.Position{X: 3, Y: 2}) {
		t.Fatalf("unexpected event %+v", events[0])
	}
	if s.session.players[0].position != (protocol.Position{X: 3, Y: 2}) {
		t.Fatalf("authoritative position not updated: %+v", s.session.players[0].position)
	}
}

func TestResolveTurnMoveOutOfBoundsEmitsNothing(t *testing.T) {
	s := newTestServer(Config{SizeX: 1, SizeY: 1, PlayersCount: 1})
	s.session.players[0] = &playerInfo{position: protocol.Position{X: 0, Y: 0}}

	events := s.resolveTurn(map[uint8]protocol.ClientMessage{
		0: protocol.NewMoveMessage(uint8(protocol.Down)),
	})

	if len(events) != 0 {
		t.Fatalf("expected no events for an out-of-bounds move, got %+v", events)
	}
	if s.session.players[0].position != (protocol.Position{X: 0, Y: 0}) {
		t.Fatalf("position must be unchanged on a rejected move")
	}
}

func TestResolveTurnPlaceBombAndPlaceBlockAreInert(t *testing.T) {
	s := newTestServer(Config{SizeX: 5, SizeY: 5, PlayersCount: 2})
	s.session.players[0] = &playerInfo{position: protocol.Position{X: 1, Y: 1}}
	s.session.players[1] = &playerInfo{position: protocol.Position{X: 2, Y: 2}}

	events := s.resolveTurn(map[uint8]protocol.ClientMessage{
		0: protocol.NewPlaceBombMessage(),
		1: protocol.NewPlaceBlockMessage(),
	})

	if len(events) != 0 {
		t.Fatalf("expected PlaceBomb/PlaceBlock to be inert, got %+v", events)
	}
}

func TestResolveTurnDeterministicAscendingOrder(t *testing.T) {
	s := newTestServer(Config{SizeX: 5, SizeY: 5, PlayersCount: 3})
	s.session.players[2] = &playerInfo{position: protocol.Position{X: 0, Y: 0}}
	s.session.players[0] = &playerInfo{position: protocol.Position{X: 0, Y: 0}}
	s.session.players[1] = &playerInfo{position: protocol.Position{X: 0, Y: 0}}

	events := s.resolveTurn(map[uint8]protocol.ClientMessage{
		2: protocol.NewMoveMessage(uint8(protocol.Right)),
		0: protocol.NewMoveMessage(uint8(protocol.Right)),
		1: protocol.NewMoveMessage(uint8(protocol.Right)),
	})

	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	for i, ev := range events {
		if ev.PlayerMoved.PlayerID != uint8(i) {
			t.Fatalf("events out of order: position %d carries player_id %d", i, ev.PlayerMoved.PlayerID)
		}
	}
}

func TestAdmitRejectsBeyondPlayersCount(t *testing.T) {
	s := newSession(Config{PlayersCount: 1})
	a := &clientInfo{addr: "a"}
	b := &clientInfo{addr: "b"}

	if _, ok := s.admit(a, "alice"); !ok {
		t.Fatalf("expected first admission to succeed")
	}
	if _, ok := s.admit(b, "bob"); ok {
		t.Fatalf("expected second admission to be rejected once players_count is reached")
	}
}

func TestIsAdmittedClearsOnReset(t *testing.T) {
	s := newSession(Config{PlayersCount: 1})
	c := &clientInfo{addr: "a"}

	if s.isAdmitted(c) {
		t.Fatalf("expected a fresh client to not be admitted")
	}
	if _, ok := s.admit(c, "alice"); !ok {
		t.Fatalf("expected admission to succeed")
	}
	if !s.isAdmitted(c) {
		t.Fatalf("expected client to be admitted after admit")
	}

	s.addClient(c)
	s.reset()

	if s.isAdmitted(c) {
		t.Fatalf("expected reset to clear admission so a persistent client can rejoin the next lobby")
	}
}

func TestAdmitAssignsContiguousIDs(t *testing.T) {
	s := newSession(Config{PlayersCount: 3})
	ids := make([]uint8, 0, 3)
	for i, name := range []string{"a", "b", "c"} {
		c := &clientInfo{addr: string(rune('a' + i))}
		id, ok := s.admit(c, name)
		if !ok {
			t.Fatalf("admission %d rejected unexpectedly", i)
		}
		ids = append(ids, id)
	}
	for i, id := range ids {
		if id != uint8(i) {
			t.Fatalf("expected contiguous ids starting at 0, got %v", ids)
		}
	}
}
