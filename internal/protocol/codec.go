package protocol

// Codec maps the structured messages above to and from the byte sequences
// of spec.md section 4.1, by structural induction:
//
//   - unsigned integers of width w: big-endian, exactly w bytes (Buffer's
//     Read/WriteUintN above);
//   - a string: one length byte, then that many raw bytes;
//   - a sequence: a 4-byte count, then that many encoded elements;
//   - a mapping: a 4-byte count, then that many (key, value) pairs, in
//     whatever order the encoder chooses;
//   - a tagged union: one byte equal to the variant's index, then that
//     variant's fields in declaration order, with no second tag.
//
// Go has no analog to boost::pfr's reflection over declared struct fields
// that also handles variable-length string/slice/map members, so each
// record below gets its own hand-written Read/Write pair instead of one
// generic reflective routine (spec.md section 9, "Reflection over record
// fields"). The declaration order in messages.go, mirroring
// _examples/original_source/messages.hpp, is authoritative.

import "github.com/pkg/errors"

func writeString(b *Buffer, s string) error {
	if len(s) > 255 {
		return ErrStringTooLong
	}
	b.WriteUint8(uint8(len(s)))
	b.WriteBytes([]byte(s))
	return nil
}

func readString(b *Buffer) (string, error) {
	n, err := b.ReadUint8()
	if err != nil {
		return "", err
	}
	raw, err := b.ReadBytes(int(n))
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func writeList[T any](b *Buffer, items []T, encode func(*Buffer, T) error) error {
	b.WriteUint32(uint32(len(items)))
	for _, item := range items {
		if err := encode(b, item); err != nil {
			return err
		}
	}
	return nil
}

func readList[T any](b *Buffer, decode func(*Buffer) (T, error)) ([]T, error) {
	n, err := b.ReadUint32()
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, n)
	for i := uint32(0); i < n; i++ {
		v, err := decode(b)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func writeMap[K comparable, V any](b *Buffer, m map[K]V, encodeKey func(*Buffer, K) error, encodeVal func(*Buffer, V) error) error {
	b.WriteUint32(uint32(len(m)))
	for k, v := range m {
		if err := encodeKey(b, k); err != nil {
			return err
		}
		if err := encodeVal(b, v); err != nil {
			return err
		}
	}
	return nil
}

func readMap[K comparable, V any](b *Buffer, decodeKey func(*Buffer) (K, error), decodeVal func(*Buffer) (V, error)) (map[K]V, error) {
	n, err := b.ReadUint32()
	if err != nil {
		return nil, err
	}
	out := make(map[K]V, n)
	for i := uint32(0); i < n; i++ {
		k, err := decodeKey(b)
		if err != nil {
			return nil, err
		}
		v, err := decodeVal(b)
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

func writeUint8(b *Buffer, v uint8) error { b.WriteUint8(v); return nil }
func readUint8(b *Buffer) (uint8, error)  { return b.ReadUint8() }

func writePosition(b *Buffer, p Position) error {
	b.WriteUint16(p.X)
	b.WriteUint16(p.Y)
	return nil
}

func readPosition(b *Buffer) (Position, error) {
	x, err := b.ReadUint16()
	if err != nil {
		return Position{}, err
	}
	y, err := b.ReadUint16()
	if err != nil {
		return Position{}, err
	}
	return Position{X: x, Y: y}, nil
}

func writeBomb(b *Buffer, bomb Bomb) error {
	if err := writePosition(b, bomb.Position); err != nil {
		return err
	}
	b.WriteUint16(bomb.Timer)
	return nil
}

func readBomb(b *Buffer) (Bomb, error) {
	pos, err := readPosition(b)
	if err != nil {
		return Bomb{}, err
	}
	timer, err := b.ReadUint16()
	if err != nil {
		return Bomb{}, err
	}
	return Bomb{Position: pos, Timer: timer}, nil
}

func writePlayer(b *Buffer, p Player) error {
	if err := writeString(b, p.Name); err != nil {
		return err
	}
	return writeString(b, p.Address)
}

func readPlayer(b *Buffer) (Player, error) {
	name, err := readString(b)
	if err != nil {
		return Player{}, err
	}
	addr, err := readString(b)
	if err != nil {
		return Player{}, err
	}
	return Player{Name: name, Address: addr}, nil
}

// ---------------------------------------------------------------------
// Event

func writeEvent(b *Buffer, e Event) error {
	switch {
	case e.BombPlaced != nil:
		b.WriteUint8(EventBombPlacedID)
		b.WriteUint32(e.BombPlaced.BombID)
		return writePosition(b, e.BombPlaced.Position)
	case e.BombExploded != nil:
		b.WriteUint8(EventBombExplodedID)
		b.WriteUint32(e.BombExploded.BombID)
		if err := writeList(b, e.BombExploded.RobotsDestroyed, writeUint8); err != nil {
			return err
		}
		return writeList(b, e.BombExploded.BlocksDestroyed, writePosition)
	case e.PlayerMoved != nil:
		b.WriteUint8(EventPlayerMovedID)
		b.WriteUint8(e.PlayerMoved.PlayerID)
		return writePosition(b, e.PlayerMoved.Position)
	case e.BlockPlaced != nil:
		b.WriteUint8(EventBlockPlacedID)
		return writePosition(b, e.BlockPlaced.Position)
	default:
		return errors.New("empty Event")
	}
}

func readEvent(b *Buffer) (Event, error) {
	tag, err := b.ReadUint8()
	if err != nil {
		return Event{}, err
	}
	switch tag {
	case EventBombPlacedID:
		bombID, err := b.ReadUint32()
		if err != nil {
			return Event{}, err
		}
		pos, err := readPosition(b)
		if err != nil {
			return Event{}, err
		}
		return NewBombPlacedEvent(bombID, pos), nil
	case EventBombExplodedID:
		bombID, err := b.ReadUint32()
		if err != nil {
			return Event{}, err
		}
		robots, err := readList(b, readUint8)
		if err != nil {
			return Event{}, err
		}
		blocks, err := readList(b, readPosition)
		if err != nil {
			return Event{}, err
		}
		return NewBombExplodedEvent(bombID, robots, blocks), nil
	case EventPlayerMovedID:
		playerID, err := b.ReadUint8()
		if err != nil {
			return Event{}, err
		}
		pos, err := readPosition(b)
		if err != nil {
			return Event{}, err
		}
		return NewPlayerMovedEvent(playerID, pos), nil
	case EventBlockPlacedID:
		pos, err := readPosition(b)
		if err != nil {
			return Event{}, err
		}
		return NewBlockPlacedEvent(pos), nil
	default:
		return Event{}, ErrInvalidMessage
	}
}

// ---------------------------------------------------------------------
// ClientMessage

// EncodeClientMessage encodes msg into a fresh Buffer ready to be sent.
func EncodeClientMessage(msg ClientMessage) (*Buffer, error) {
	b := NewBuffer()
	if err := WriteClientMessage(b, msg); err != nil {
		return nil, err
	}
	return b, nil
}

// WriteClientMessage appends the encoding of msg onto b.
func WriteClientMessage(b *Buffer, msg ClientMessage) error {
	switch {
	case msg.Join != nil:
		b.WriteUint8(ClientMessageJoinID)
		return writeString(b, msg.Join.Name)
	case msg.PlaceBomb != nil:
		b.WriteUint8(ClientMessagePlaceBombID)
		return nil
	case msg.PlaceBlock != nil:
		b.WriteUint8(ClientMessagePlaceBlockID)
		return nil
	case msg.Move != nil:
		b.WriteUint8(ClientMessageMoveID)
		b.WriteUint8(msg.Move.Direction)
		return nil
	default:
		return errors.New("empty ClientMessage")
	}
}

// DecodeClientMessage decodes one ClientMessage from b.
func DecodeClientMessage(b *Buffer) (ClientMessage, error) {
	tag, err := b.ReadUint8()
	if err != nil {
		return ClientMessage{}, err
	}
	switch tag {
	case ClientMessageJoinID:
		name, err := readString(b)
		if err != nil {
			return ClientMessage{}, err
		}
		return NewJoinMessage(name), nil
	case ClientMessagePlaceBombID:
		return NewPlaceBombMessage(), nil
	case ClientMessagePlaceBlockID:
		return NewPlaceBlockMessage(), nil
	case ClientMessageMoveID:
		d, err := b.ReadUint8()
		if err != nil {
			return ClientMessage{}, err
		}
		return NewMoveMessage(d), nil
	default:
		return ClientMessage{}, ErrInvalidMessage
	}
}

// ---------------------------------------------------------------------
// ServerMessage

func EncodeServerMessage(msg ServerMessage) (*Buffer, error) {
	b := NewBuffer()
	if err := WriteServerMessage(b, msg); err != nil {
		return nil, err
	}
	return b, nil
}

func WriteServerMessage(b *Buffer, msg ServerMessage) error {
	switch {
	case msg.Hello != nil:
		h := msg.Hello
		b.WriteUint8(ServerMessageHelloID)
		if err := writeString(b, h.ServerName); err != nil {
			return err
		}
		b.WriteUint8(h.PlayersCount)
		b.WriteUint16(h.SizeX)
		b.WriteUint16(h.SizeY)
		b.WriteUint16(h.GameLength)
		b.WriteUint16(h.ExplosionRadius)
		b.WriteUint16(h.BombTimer)
		return nil
	case msg.AcceptedPlayer != nil:
		a := msg.AcceptedPlayer
		b.WriteUint8(ServerMessageAcceptedPlayerID)
		b.WriteUint8(a.PlayerID)
		return writePlayer(b, a.Player)
	case msg.GameStarted != nil:
		b.WriteUint8(ServerMessageGameStartedID)
		return writeMap(b, msg.GameStarted.Players, writeUint8, writePlayer)
	case msg.Turn != nil:
		t := msg.Turn
		b.WriteUint8(ServerMessageTurnID)
		b.WriteUint16(t.Turn)
		return writeList(b, t.Events, writeEvent)
	case msg.GameEnded != nil:
		b.WriteUint8(ServerMessageGameEndedID)
		return writeMap(b, msg.GameEnded.Scores, writeUint8, func(b *Buffer, v uint32) error {
			b.WriteUint32(v)
			return nil
		})
	default:
		return errors.New("empty ServerMessage")
	}
}

func DecodeServerMessage(b *Buffer) (ServerMessage, error) {
	tag, err := b.ReadUint8()
	if err != nil {
		return ServerMessage{}, err
	}
	switch tag {
	case ServerMessageHelloID:
		name, err := readString(b)
		if err != nil {
			return ServerMessage{}, err
		}
		playersCount, err := b.ReadUint8()
		if err != nil {
			return ServerMessage{}, err
		}
		sizeX, err := b.ReadUint16()
		if err != nil {
			return ServerMessage{}, err
		}
		sizeY, err := b.ReadUint16()
		if err != nil {
			return ServerMessage{}, err
		}
		gameLength, err := b.ReadUint16()
		if err != nil {
			return ServerMessage{}, err
		}
		explosionRadius, err := b.ReadUint16()
		if err != nil {
			return ServerMessage{}, err
		}
		bombTimer, err := b.ReadUint16()
		if err != nil {
			return ServerMessage{}, err
		}
		return NewHelloMessage(ServerMessageHello{
			ServerName:      name,
			PlayersCount:    playersCount,
			SizeX:           sizeX,
			SizeY:           sizeY,
			GameLength:      gameLength,
			ExplosionRadius: explosionRadius,
			BombTimer:       bombTimer,
		}), nil
	case ServerMessageAcceptedPlayerID:
		playerID, err := b.ReadUint8()
		if err != nil {
			return ServerMessage{}, err
		}
		player, err := readPlayer(b)
		if err != nil {
			return ServerMessage{}, err
		}
		return NewAcceptedPlayerMessage(playerID, player), nil
	case ServerMessageGameStartedID:
		players, err := readMap(b, readUint8, readPlayer)
		if err != nil {
			return ServerMessage{}, err
		}
		return NewGameStartedMessage(players), nil
	case ServerMessageTurnID:
		turn, err := b.ReadUint16()
		if err != nil {
			return ServerMessage{}, err
		}
		events, err := readList(b, readEvent)
		if err != nil {
			return ServerMessage{}, err
		}
		return NewTurnMessage(turn, events), nil
	case ServerMessageGameEndedID:
		scores, err := readMap(b, readUint8, func(b *Buffer) (uint32, error) { return b.ReadUint32() })
		if err != nil {
			return ServerMessage{}, err
		}
		return NewGameEndedMessage(scores), nil
	default:
		return ServerMessage{}, ErrInvalidMessage
	}
}

// ---------------------------------------------------------------------
// DrawMessage (client -> display)

func EncodeDrawMessage(msg DrawMessage) (*Buffer, error) {
	b := NewBuffer()
	if err := WriteDrawMessage(b, msg); err != nil {
		return nil, err
	}
	return b, nil
}

func WriteDrawMessage(b *Buffer, msg DrawMessage) error {
	switch {
	case msg.Lobby != nil:
		l := msg.Lobby
		b.WriteUint8(DrawMessageLobbyID)
		if err := writeString(b, l.ServerName); err != nil {
			return err
		}
		b.WriteUint8(l.PlayersCount)
		b.WriteUint16(l.SizeX)
		b.WriteUint16(l.SizeY)
		b.WriteUint16(l.GameLength)
		b.WriteUint16(l.ExplosionRadius)
		b.WriteUint16(l.BombTimer)
		return writeMap(b, l.Players, writeUint8, writePlayer)
	case msg.Game != nil:
		g := msg.Game
		b.WriteUint8(DrawMessageGameID)
		if err := writeString(b, g.ServerName); err != nil {
			return err
		}
		b.WriteUint16(g.SizeX)
		b.WriteUint16(g.SizeY)
		b.WriteUint16(g.GameLength)
		b.WriteUint16(g.Turn)
		if err := writeMap(b, g.Players, writeUint8, writePlayer); err != nil {
			return err
		}
		if err := writeMap(b, g.PlayerPositions, writeUint8, writePosition); err != nil {
			return err
		}
		if err := writeList(b, g.Blocks, writePosition); err != nil {
			return err
		}
		if err := writeList(b, g.Bombs, writeBomb); err != nil {
			return err
		}
		if err := writeList(b, g.Explosions, writePosition); err != nil {
			return err
		}
		return writeMap(b, g.Scores, writeUint8, func(b *Buffer, v uint32) error {
			b.WriteUint32(v)
			return nil
		})
	default:
		return errors.New("empty DrawMessage")
	}
}

func DecodeDrawMessage(b *Buffer) (DrawMessage, error) {
	tag, err := b.ReadUint8()
	if err != nil {
		return DrawMessage{}, err
	}
	switch tag {
	case DrawMessageLobbyID:
		name, err := readString(b)
		if err != nil {
			return DrawMessage{}, err
		}
		playersCount, err := b.ReadUint8()
		if err != nil {
			return DrawMessage{}, err
		}
		sizeX, err := b.ReadUint16()
		if err != nil {
			return DrawMessage{}, err
		}
		sizeY, err := b.ReadUint16()
		if err != nil {
			return DrawMessage{}, err
		}
		gameLength, err := b.ReadUint16()
		if err != nil {
			return DrawMessage{}, err
		}
		explosionRadius, err := b.ReadUint16()
		if err != nil {
			return DrawMessage{}, err
		}
		bombTimer, err := b.ReadUint16()
		if err != nil {
			return DrawMessage{}, err
		}
		players, err := readMap(b, readUint8, readPlayer)
		if err != nil {
			return DrawMessage{}, err
		}
		return NewLobbyDrawMessage(DrawMessageLobby{
			ServerName:      name,
			PlayersCount:    playersCount,
			SizeX:           sizeX,
			SizeY:           sizeY,
			GameLength:      gameLength,
			ExplosionRadius: explosionRadius,
			BombTimer:       bombTimer,
			Players:         players,
		}), nil
	case DrawMessageGameID:
		name, err := readString(b)
		if err != nil {
			return DrawMessage{}, err
		}
		sizeX, err := b.ReadUint16()
		if err != nil {
			return DrawMessage{}, err
		}
		sizeY, err := b.ReadUint16()
		if err != nil {
			return DrawMessage{}, err
		}
		gameLength, err := b.ReadUint16()
		if err != nil {
			return DrawMessage{}, err
		}
		turn, err := b.ReadUint16()
		if err != nil {
			return DrawMessage{}, err
		}
		players, err := readMap(b, readUint8, readPlayer)
		if err != nil {
			return DrawMessage{}, err
		}
		playerPositions, err := readMap(b, readUint8, readPosition)
		if err != nil {
			return DrawMessage{}, err
		}
		blocks, err := readList(b, readPosition)
		if err != nil {
			return DrawMessage{}, err
		}
		bombs, err := readList(b, readBomb)
		if err != nil {
			return DrawMessage{}, err
		}
		explosions, err := readList(b, readPosition)
		if err != nil {
			return DrawMessage{}, err
		}
		scores, err := readMap(b, readUint8, func(b *Buffer) (uint32, error) { return b.ReadUint32() })
		if err != nil {
			return DrawMessage{}, err
		}
		return NewGameDrawMessage(DrawMessageGame{
			ServerName:      name,
			SizeX:           sizeX,
			SizeY:           sizeY,
			GameLength:      gameLength,
			Turn:            turn,
			Players:         players,
			PlayerPositions: playerPositions,
			Blocks:          blocks,
			Bombs:           bombs,
			Explosions:      explosions,
			Scores:          scores,
		}), nil
	default:
		return DrawMessage{}, ErrInvalidMessage
	}
}

// ---------------------------------------------------------------------
// InputMessage (display -> client)

func EncodeInputMessage(msg InputMessage) (*Buffer, error) {
	b := NewBuffer()
	if err := WriteInputMessage(b, msg); err != nil {
		return nil, err
	}
	return b, nil
}

func WriteInputMessage(b *Buffer, msg InputMessage) error {
	switch {
	case msg.PlaceBomb != nil:
		b.WriteUint8(InputMessagePlaceBombID)
		return nil
	case msg.PlaceBlock != nil:
		b.WriteUint8(InputMessagePlaceBlockID)
		return nil
	case msg.Move != nil:
		b.WriteUint8(InputMessageMoveID)
		b.WriteUint8(msg.Move.Direction)
		return nil
	default:
		return errors.New("empty InputMessage")
	}
}

func DecodeInputMessage(b *Buffer) (InputMessage, error) {
	tag, err := b.ReadUint8()
	if err != nil {
		return InputMessage{}, err
	}
	switch tag {
	case InputMessagePlaceBombID:
		return InputMessage{PlaceBomb: &InputMessagePlaceBomb{}}, nil
	case InputMessagePlaceBlockID:
		return InputMessage{PlaceBlock: &InputMessagePlaceBlock{}}, nil
	case InputMessageMoveID:
		d, err := b.ReadUint8()
		if err != nil {
			return InputMessage{}, err
		}
		return InputMessage{Move: &InputMessageMove{Direction: d}}, nil
	default:
		return InputMessage{}, ErrInvalidMessage
	}
}
