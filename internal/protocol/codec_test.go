package protocol

import (
	"testing"

	"github.com/go-test/deep"
)

func roundTripServer(t *testing.T, msg ServerMessage) ServerMessage {
	t.Helper()
	b, err := EncodeServerMessage(msg)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeServerMessage(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !b.Empty() {
		t.Fatalf("trailing bytes after decode: %d", len(b.Bytes()))
	}
	return got
}

func TestHelloRoundTrip(t *testing.T) {
	want := NewHelloMessage(ServerMessageHello{
		ServerName:      "Robots Server",
		PlayersCount:    4,
		SizeX:           20,
		SizeY:           20,
		GameLength:      100,
		ExplosionRadius: 3,
		BombTimer:       5,
	})
	got := roundTripServer(t, want)
	if diff := deep.Equal(want, got); diff != nil {
		t.Errorf("round trip mismatch: %v", diff)
	}
}

func TestAcceptedPlayerRoundTrip(t *testing.T) {
	want := NewAcceptedPlayerMessage(2, Player{Name: "alice", Address: "127.0.0.1:54321"})
	got := roundTripServer(t, want)
	if diff := deep.Equal(want, got); diff != nil {
		t.Errorf("round trip mismatch: %v", diff)
	}
}

func TestGameStartedRoundTripKeySet(t *testing.T) {
	want := NewGameStartedMessage(map[uint8]Player{
		0: {Name: "alice", Address: "10.0.0.1:1"},
		1: {Name: "bob", Address: "10.0.0.2:2"},
	})
	got := roundTripServer(t, want)
	if len(got.GameStarted.Players) != len(want.GameStarted.Players) {
		t.Fatalf("player count mismatch: got %d want %d", len(got.GameStarted.Players), len(want.GameStarted.Players))
	}
	for id, p := range want.GameStarted.Players {
		if got.GameStarted.Players[id] != p {
			t.Errorf("player %d mismatch: got %+v want %+v", id, got.GameStarted.Players[id], p)
		}
	}
}

func TestTurnRoundTripWithAllEventKinds(t *testing.T) {
	want := NewTurnMessage(7, []Event{
		NewBombPlacedEvent(1, Position{X: 3, Y: 4}),
		NewBombExplodedEvent(1, []uint8{0, 2}, []Position{{X: 3, Y: 5}, {X: 3, Y: 3}}),
		NewPlayerMovedEvent(0, Position{X: 5, Y: 5}),
		NewBlockPlacedEvent(Position{X: 9, Y: 9}),
	})
	got := roundTripServer(t, want)
	if diff := deep.Equal(want, got); diff != nil {
		t.Errorf("round trip mismatch: %v", diff)
	}
}

func TestGameEndedRoundTrip(t *testing.T) {
	want := NewGameEndedMessage(map[uint8]uint32{0: 3, 1: 0, 2: 7})
	got := roundTripServer(t, want)
	for id, score := range want.GameEnded.Scores {
		if got.GameEnded.Scores[id] != score {
			t.Errorf("score %d mismatch: got %d want %d", id, got.GameEnded.Scores[id], score)
		}
	}
}

func TestClientMessageRoundTrip(t *testing.T) {
	cases := []ClientMessage{
		NewJoinMessage("bob"),
		NewPlaceBombMessage(),
		NewPlaceBlockMessage(),
		NewMoveMessage(uint8(Right)),
	}
	for _, want := range cases {
		b, err := EncodeClientMessage(want)
		if err != nil {
			t.Fatalf("encode %+v: %v", want, err)
		}
		got, err := DecodeClientMessage(b)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if diff := deep.Equal(want, got); diff != nil {
			t.Errorf("round trip mismatch for %+v: %v", want, diff)
		}
	}
}

func TestJoinNameExactly255Bytes(t *testing.T) {
	name := make([]byte, 255)
	for i := range name {
		name[i] = 'a'
	}
	want := NewJoinMessage(string(name))
	b, err := EncodeClientMessage(want)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	// tag byte + 1 length byte + 255 payload bytes
	if len(b.Bytes()) != 1+1+255 {
		t.Fatalf("unexpected encoded length: %d", len(b.Bytes()))
	}
	got, err := DecodeClientMessage(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := deep.Equal(want, got); diff != nil {
		t.Errorf("round trip mismatch: %v", diff)
	}
}

func TestJoinNameTooLongRejected(t *testing.T) {
	name := make([]byte, 256)
	msg := NewJoinMessage(string(name))
	if _, err := EncodeClientMessage(msg); err != ErrStringTooLong {
		t.Fatalf("expected ErrStringTooLong, got %v", err)
	}
}

func TestEmptyListEncodesAsFourZeroBytes(t *testing.T) {
	want := NewTurnMessage(0, nil)
	b, err := EncodeServerMessage(want)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	// tag (1) + turn (2) + count (4, all zero)
	raw := b.Bytes()
	if len(raw) != 1+2+4 {
		t.Fatalf("unexpected length: %d", len(raw))
	}
	for _, c := range raw[3:] {
		if c != 0 {
			t.Fatalf("expected zero count bytes, got %v", raw[3:])
		}
	}
}

func TestUnknownTagIsInvalidMessage(t *testing.T) {
	b := NewFixedBuffer([]byte{0xFF})
	if _, err := DecodeClientMessage(b); err != ErrInvalidMessage {
		t.Fatalf("expected ErrInvalidMessage, got %v", err)
	}
}

func TestTrailingBytesAfterFixedDecode(t *testing.T) {
	b, err := EncodeClientMessage(NewPlaceBombMessage())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	raw := append(b.Bytes(), 0x01, 0x02)
	fixed := NewFixedBuffer(raw)
	if _, err := DecodeClientMessage(fixed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if fixed.Empty() {
		t.Fatalf("expected trailing bytes to remain")
	}
}

// TestTurnMessageExactLength reproduces the codec round-trip scenario:
// Turn(turn=42, events=[BombPlaced(7, (3,4)), PlayerMoved(1, (5,6))])
// must round-trip and encode to exactly 22 bytes.
func TestTurnMessageExactLength(t *testing.T) {
	want := NewTurnMessage(42, []Event{
		NewBombPlacedEvent(7, Position{X: 3, Y: 4}),
		NewPlayerMovedEvent(1, Position{X: 5, Y: 6}),
	})
	b, err := EncodeServerMessage(want)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if got := len(b.Bytes()); got != 22 {
		t.Fatalf("unexpected length: got %d want 22", got)
	}
	got, err := DecodeServerMessage(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := deep.Equal(want, got); diff != nil {
		t.Errorf("round trip mismatch: %v", diff)
	}
}

func TestDrawMessageRoundTrip(t *testing.T) {
	want := NewGameDrawMessage(DrawMessageGame{
		ServerName: "srv",
		SizeX:      10,
		SizeY:      10,
		GameLength: 50,
		Turn:       3,
		Players:    map[uint8]Player{0: {Name: "a", Address: "x:1"}},
		PlayerPositions: map[uint8]Position{
			0: {X: 1, Y: 2},
		},
		Blocks:     []Position{{X: 0, Y: 0}},
		Bombs:      []Bomb{{Position: Position{X: 2, Y: 2}, Timer: 3}},
		Explosions: []Position{{X: 1, Y: 1}},
		Scores:     map[uint8]uint32{0: 1},
	})
	b, err := EncodeDrawMessage(want)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeDrawMessage(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := deep.Equal(want, got); diff != nil {
		t.Errorf("round trip mismatch: %v", diff)
	}
}

func TestInputMessageRoundTrip(t *testing.T) {
	cases := []InputMessage{
		{PlaceBomb: &InputMessagePlaceBomb{}},
		{PlaceBlock: &InputMessagePlaceBlock{}},
		{Move: &InputMessageMove{Direction: uint8(Left)}},
	}
	for _, want := range cases {
		b, err := EncodeInputMessage(want)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		got, err := DecodeInputMessage(b)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if diff := deep.Equal(want, got); diff != nil {
			t.Errorf("round trip mismatch: %v", diff)
		}
	}
}
