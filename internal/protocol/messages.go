package protocol

// This file enumerates every message family exchanged between the four
// participants in the system (client->server, server->client, events nested
// inside a Turn message, client->display, display->client). The order of
// struct fields below is significant: it is the order in which fields are
// serialized on the wire, and must match the declaration order in
// _examples/original_source/messages.hpp exactly. The order of types within
// each variant set is equally significant: it is the variant's msg_id.

// ---------------------------------------------------------------------
// Events (nested inside ServerMessageTurn, never sent as a top-level
// message in their own right).

const (
	EventBombPlacedID uint8 = iota
	EventBombExplodedID
	EventPlayerMovedID
	EventBlockPlacedID
)

type EventBombPlaced struct {
	BombID   uint32
	Position Position
}

type EventBombExploded struct {
	BombID          uint32
	RobotsDestroyed []uint8
	BlocksDestroyed []Position
}

type EventPlayerMoved struct {
	PlayerID uint8
	Position Position
}

type EventBlockPlaced struct {
	Position Position
}

// Event is the closed set of world-state changes a Turn message carries.
// Exactly one of the fields is non-nil; EventKind reports which.
type Event struct {
	BombPlaced   *EventBombPlaced
	BombExploded *EventBombExploded
	PlayerMoved  *EventPlayerMoved
	BlockPlaced  *EventBlockPlaced
}

func NewBombPlacedEvent(bombID uint32, pos Position) Event {
	return Event{BombPlaced: &EventBombPlaced{BombID: bombID, Position: pos}}
}

func NewBombExplodedEvent(bombID uint32, robots []uint8, blocks []Position) Event {
	return Event{BombExploded: &EventBombExploded{BombID: bombID, RobotsDestroyed: robots, BlocksDestroyed: blocks}}
}

func NewPlayerMovedEvent(playerID uint8, pos Position) Event {
	return Event{PlayerMoved: &EventPlayerMoved{PlayerID: playerID, Position: pos}}
}

func NewBlockPlacedEvent(pos Position) Event {
	return Event{BlockPlaced: &EventBlockPlaced{Position: pos}}
}

// ---------------------------------------------------------------------
// Client -> Server

const (
	ClientMessageJoinID uint8 = iota
	ClientMessagePlaceBombID
	ClientMessagePlaceBlockID
	ClientMessageMoveID
)

type ClientMessageJoin struct {
	Name string
}

type ClientMessagePlaceBomb struct{}

type ClientMessagePlaceBlock struct{}

type ClientMessageMove struct {
	Direction uint8
}

// ClientMessage is the tagged union of every message a client may send to
// the server. Exactly one field is populated.
type ClientMessage struct {
	Join       *ClientMessageJoin
	PlaceBomb  *ClientMessagePlaceBomb
	PlaceBlock *ClientMessagePlaceBlock
	Move       *ClientMessageMove
}

func NewJoinMessage(name string) ClientMessage {
	return ClientMessage{Join: &ClientMessageJoin{Name: name}}
}

func NewPlaceBombMessage() ClientMessage {
	return ClientMessage{PlaceBomb: &ClientMessagePlaceBomb{}}
}

func NewPlaceBlockMessage() ClientMessage {
	return ClientMessage{PlaceBlock: &ClientMessagePlaceBlock{}}
}

func NewMoveMessage(direction uint8) ClientMessage {
	return ClientMessage{Move: &ClientMessageMove{Direction: direction}}
}

// ---------------------------------------------------------------------
// Server -> Client

const (
	ServerMessageHelloID uint8 = iota
	ServerMessageAcceptedPlayerID
	ServerMessageGameStartedID
	ServerMessageTurnID
	ServerMessageGameEndedID
)

type ServerMessageHello struct {
	ServerName      string
	PlayersCount    uint8
	SizeX           uint16
	SizeY           uint16
	GameLength      uint16
	ExplosionRadius uint16
	BombTimer       uint16
}

type ServerMessageAcceptedPlayer struct {
	PlayerID uint8
	Player   Player
}

type ServerMessageGameStarted struct {
	Players map[uint8]Player
}

type ServerMessageTurn struct {
	Turn   uint16
	Events []Event
}

type ServerMessageGameEnded struct {
	Scores map[uint8]uint32
}

// ServerMessage is the tagged union of every message the server may send to
// a client. Exactly one field is populated.
type ServerMessage struct {
	Hello          *ServerMessageHello
	AcceptedPlayer *ServerMessageAcceptedPlayer
	GameStarted    *ServerMessageGameStarted
	Turn           *ServerMessageTurn
	GameEnded      *ServerMessageGameEnded
}

func NewHelloMessage(msg ServerMessageHello) ServerMessage {
	return ServerMessage{Hello: &msg}
}

func NewAcceptedPlayerMessage(playerID uint8, player Player) ServerMessage {
	return ServerMessage{AcceptedPlayer: &ServerMessageAcceptedPlayer{PlayerID: playerID, Player: player}}
}

func NewGameStartedMessage(players map[uint8]Player) ServerMessage {
	return ServerMessage{GameStarted: &ServerMessageGameStarted{Players: players}}
}

func NewTurnMessage(turn uint16, events []Event) ServerMessage {
	return ServerMessage{Turn: &ServerMessageTurn{Turn: turn, Events: events}}
}

func NewGameEndedMessage(scores map[uint8]uint32) ServerMessage {
	return ServerMessage{GameEnded: &ServerMessageGameEnded{Scores: scores}}
}

// ---------------------------------------------------------------------
// Client -> Display

const (
	DrawMessageLobbyID uint8 = iota
	DrawMessageGameID
)

type DrawMessageLobby struct {
	ServerName      string
	PlayersCount    uint8
	SizeX           uint16
	SizeY           uint16
	GameLength      uint16
	ExplosionRadius uint16
	BombTimer       uint16
	Players         map[uint8]Player
}

type DrawMessageGame struct {
	ServerName      string
	SizeX           uint16
	SizeY           uint16
	GameLength      uint16
	Turn            uint16
	Players         map[uint8]Player
	PlayerPositions map[uint8]Position
	Blocks          []Position
	Bombs           []Bomb
	Explosions      []Position
	Scores          map[uint8]uint32
}

// DrawMessage is the tagged union of datagrams a client sends to the
// display. Exactly one field is populated.
type DrawMessage struct {
	Lobby *DrawMessageLobby
	Game  *DrawMessageGame
}

func NewLobbyDrawMessage(msg DrawMessageLobby) DrawMessage {
	return DrawMessage{Lobby: &msg}
}

func NewGameDrawMessage(msg DrawMessageGame) DrawMessage {
	return DrawMessage{Game: &msg}
}

// ---------------------------------------------------------------------
// Display -> Client

const (
	InputMessagePlaceBombID uint8 = iota
	InputMessagePlaceBlockID
	InputMessageMoveID
)

type InputMessagePlaceBomb struct{}

type InputMessagePlaceBlock struct{}

type InputMessageMove struct {
	Direction uint8
}

// InputMessage is the tagged union of datagrams the display sends to a
// client. Exactly one field is populated.
type InputMessage struct {
	PlaceBomb  *InputMessagePlaceBomb
	PlaceBlock *InputMessagePlaceBlock
	Move       *InputMessageMove
}
