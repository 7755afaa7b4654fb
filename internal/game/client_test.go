package game

import (
	"net"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/mkwasowski/robots/internal/protocol"
)

// mustLoopbackUDP dials a UDP socket at a locally bound listener so that
// Client.sendDraw's Write calls succeed without actually asserting on
// the datagrams received; the listener itself is intentionally never
// read from and is cleaned up via t.Cleanup.
func mustLoopbackUDP(t *testing.T) *net.UDPConn {
	t.Helper()
	listener, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("failed to open loopback listener: %v", err)
	}
	t.Cleanup(func() { listener.Close() })

	conn, err := net.DialUDP("udp", nil, listener.LocalAddr().(*net.UDPAddr))
	if err != nil {
		t.Fatalf("failed to dial loopback: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func newTestClient() *Client {
	log := logrus.New()
	log.SetOutput(discardWriter{})
	c := &Client{game: newGameState(), log: log}
	c.game.SizeX = 10
	c.game.SizeY = 10
	c.game.ExplosionRadius = 2
	c.game.BombTimer = 3
	return c
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestExplosionGeometryOpenBoard(t *testing.T) {
	c := newTestClient()
	c.game.Bombs[1] = &bombState{position: protocol.Position{X: 5, Y: 5}, timer: 3}

	c.applyExplosion(&protocol.EventBombExploded{BombID: 1})

	want := []protocol.Position{
		{X: 5, Y: 5}, // origin
		{X: 5, Y: 6}, {X: 5, Y: 7}, // up
		{X: 5, Y: 4}, {X: 5, Y: 3}, // down
		{X: 6, Y: 5}, {X: 7, Y: 5}, // right
		{X: 4, Y: 5}, {X: 3, Y: 5}, // left
	}
	if len(c.game.Explosions) != len(want) {
		t.Fatalf("got %d explosion cells, want %d (%v)", len(c.game.Explosions), len(want), c.game.Explosions)
	}
	for _, pos := range want {
		if !c.game.Explosions[pos] {
			t.Errorf("missing explosion cell %+v", pos)
		}
	}
}

func TestExplosionGeometryStoppedByBlock(t *testing.T) {
	c := newTestClient()
	c.game.Blocks = []protocol.Position{{X: 5, Y: 6}}
	c.game.Bombs[1] = &bombState{position: protocol.Position{X: 5, Y: 5}, timer: 3}

	c.applyExplosion(&protocol.EventBombExploded{BombID: 1})

	// The up arm should stop at the block cell (5,6) itself, never
	// reaching (5,7) even though the radius would otherwise allow it.
	if !c.game.Explosions[protocol.Position{X: 5, Y: 6}] {
		t.Fatalf("expected block cell to count as an explosion cell")
	}
	if c.game.Explosions[protocol.Position{X: 5, Y: 7}] {
		t.Fatalf("expected arm to stop at the block, not continue past it")
	}
}

func TestExplosionGeometryStoppedByBoardEdge(t *testing.T) {
	c := newTestClient()
	c.game.Bombs[1] = &bombState{position: protocol.Position{X: 0, Y: 0}, timer: 3}

	c.applyExplosion(&protocol.EventBombExploded{BombID: 1})

	if c.game.Explosions[protocol.Position{X: 8, Y: 0}] {
		t.Fatalf("left arm should not wrap or underflow past the board edge")
	}
	if !c.game.Explosions[protocol.Position{X: 0, Y: 0}] {
		t.Fatalf("origin cell must always be an explosion cell")
	}
	if !c.game.Explosions[protocol.Position{X: 1, Y: 0}] {
		t.Fatalf("right arm should still reach within bounds")
	}
}

func TestApplyTurnClearsExplosionsAfterSnapshot(t *testing.T) {
	c := newTestClient()
	c.display = mustLoopbackUDP(t)

	c.game.Bombs[1] = &bombState{position: protocol.Position{X: 2, Y: 2}, timer: 1}
	turn := &protocol.ServerMessageTurn{
		Turn: 5,
		Events: []protocol.Event{
			protocol.NewBombExplodedEvent(1, nil, nil),
		},
	}
	c.applyTurn(turn)

	if len(c.game.Explosions) != 0 {
		t.Fatalf("expected explosions cleared after snapshot, got %v", c.game.Explosions)
	}
	if c.game.Turn != 5 {
		t.Fatalf("expected turn recorded as 5, got %d", c.game.Turn)
	}
}

func TestApplyTurnKillsScoreOncePerTurn(t *testing.T) {
	c := newTestClient()
	c.display = mustLoopbackUDP(t)
	c.game.Scores[0] = 0
	c.game.Bombs[1] = &bombState{position: protocol.Position{X: 2, Y: 2}, timer: 1}

	turn := &protocol.ServerMessageTurn{
		Turn: 1,
		Events: []protocol.Event{
			protocol.NewBombExplodedEvent(1, []uint8{0, 0}, nil),
		},
	}
	c.applyTurn(turn)

	if c.game.Scores[0] != 1 {
		t.Fatalf("expected exactly one point regardless of kill multiplicity, got %d", c.game.Scores[0])
	}
	if c.game.Killed[0] {
		t.Fatalf("expected killed flag cleared after scoring")
	}
}

func TestApplyTurnRemovesDestroyedBlocks(t *testing.T) {
	c := newTestClient()
	c.display = mustLoopbackUDP(t)
	c.game.Blocks = []protocol.Position{{X: 1, Y: 1}, {X: 2, Y: 2}}
	c.game.Bombs[1] = &bombState{position: protocol.Position{X: 1, Y: 1}, timer: 1}

	turn := &protocol.ServerMessageTurn{
		Turn: 1,
		Events: []protocol.Event{
			protocol.NewBombExplodedEvent(1, nil, []protocol.Position{{X: 1, Y: 1}}),
		},
	}
	c.applyTurn(turn)

	if len(c.game.Blocks) != 1 || c.game.Blocks[0] != (protocol.Position{X: 2, Y: 2}) {
		t.Fatalf("expected only (2,2) to remain, got %v", c.game.Blocks)
	}
}

func TestBombTimerDecrementsSaturatingAtZero(t *testing.T) {
	c := newTestClient()
	c.display = mustLoopbackUDP(t)
	c.game.Bombs[1] = &bombState{position: protocol.Position{X: 0, Y: 0}, timer: 0}

	c.applyTurn(&protocol.ServerMessageTurn{Turn: 1})

	if c.game.Bombs[1].timer != 0 {
		t.Fatalf("expected timer to saturate at 0, got %d", c.game.Bombs[1].timer)
	}
}
