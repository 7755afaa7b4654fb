package game

import (
	"io"
	"net"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/mkwasowski/robots/internal/protocol"
)

// clientState is the client's three-state machine from spec.md section
// 4.4. Finish is a one-shot latch: once reached it is never reverted,
// modeling the source's process-wide cancellation flag (spec.md section
// 9, "Client state flag").
type clientState int32

const (
	csLobby clientState = iota
	csPlaying
	csFinish
)

// bombState is the client's local mirror of one live bomb: position plus
// a timer that counts down once per received Turn, saturating at 0.
type bombState struct {
	position protocol.Position
	timer    uint16
}

// GameState is the client's mirror of the server's world (spec.md
// section 4.4): the fields that come straight off the wire, plus the
// client-only bookkeeping (killed flags, a blocks-destroyed staging set,
// a bomb_id -> position map, and a per-turn explosions set) needed to
// translate events into a display snapshot.
type GameState struct {
	ServerName      string
	PlayersCount    uint8
	SizeX           uint16
	SizeY           uint16
	GameLength      uint16
	ExplosionRadius uint16
	BombTimer       uint16
	Turn            uint16

	Players   map[uint8]protocol.Player
	Positions map[uint8]protocol.Position
	Scores    map[uint8]uint32
	Killed    map[uint8]bool
	Blocks    []protocol.Position
	Bombs     map[uint32]*bombState

	blocksDestroyedStage map[protocol.Position]bool
	Explosions           map[protocol.Position]bool
}

func newGameState() *GameState {
	return &GameState{
		Players:              make(map[uint8]protocol.Player),
		Positions:            make(map[uint8]protocol.Position),
		Scores:               make(map[uint8]uint32),
		Killed:               make(map[uint8]bool),
		Bombs:                make(map[uint32]*bombState),
		blocksDestroyedStage: make(map[protocol.Position]bool),
		Explosions:           make(map[protocol.Position]bool),
	}
}

func (g *GameState) isBlock(pos protocol.Position) bool {
	for _, b := range g.Blocks {
		if b == pos {
			return true
		}
	}
	return false
}

// Client is the per-player half of spec.md section 4.4: one persistent
// TCP connection to the server, one UDP conversation with a local
// display, and the GameState they both drive.
type Client struct {
	conn       net.Conn
	display    *net.UDPConn
	playerName string
	state      int32
	game       *GameState
	log        *logrus.Logger
}

// NewClient builds a Client. conn must already be connected to the
// server with TCP_NODELAY set; display must already be dialed to the
// gui-address.
func NewClient(conn net.Conn, display *net.UDPConn, playerName string, log *logrus.Logger) *Client {
	return &Client{
		conn:       conn,
		display:    display,
		playerName: playerName,
		game:       newGameState(),
		log:        log,
	}
}

// Run drives both client tasks (spec.md section 4.5) until either
// requests shutdown, then returns once both have unwound.
func (c *Client) Run() {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); c.runServerMirror() }()
	go func() { defer wg.Done(); c.runDisplayForwarder() }()
	wg.Wait()
}

func (c *Client) State() clientState {
	return clientState(atomic.LoadInt32(&c.state))
}

// setState advances the state machine, except once Finish has been
// latched no further transition is observed.
func (c *Client) setState(s clientState) {
	for {
		cur := atomic.LoadInt32(&c.state)
		if clientState(cur) == csFinish {
			return
		}
		if atomic.CompareAndSwapInt32(&c.state, cur, int32(s)) {
			return
		}
	}
}

// requestShutdown is the one-shot cancellation token: the first caller
// latches Finish and closes both sockets, unblocking whichever task is
// parked in a read; later callers are no-ops.
func (c *Client) requestShutdown() {
	for {
		cur := atomic.LoadInt32(&c.state)
		if clientState(cur) == csFinish {
			return
		}
		if atomic.CompareAndSwapInt32(&c.state, cur, int32(csFinish)) {
			c.conn.Close()
			c.display.Close()
			return
		}
	}
}

func (c *Client) reader() protocol.Provider {
	return func(n int) ([]byte, error) {
		buf := make([]byte, n)
		if _, err := io.ReadFull(c.conn, buf); err != nil {
			return nil, err
		}
		return buf, nil
	}
}

// runServerMirror blocks on the TCP stream, decoding one ServerMessage at
// a time and folding it into GameState.
func (c *Client) runServerMirror() {
	buf := protocol.NewStreamingBuffer(c.reader())
	for {
		msg, err := protocol.DecodeServerMessage(buf)
		if err != nil {
			c.log.WithError(err).Debug("server connection ended")
			c.requestShutdown()
			return
		}
		c.handleServerMessage(msg)
	}
}

func (c *Client) handleServerMessage(msg protocol.ServerMessage) {
	switch {
	case msg.Hello != nil:
		h := msg.Hello
		c.game.ServerName = h.ServerName
		c.game.PlayersCount = h.PlayersCount
		c.game.SizeX = h.SizeX
		c.game.SizeY = h.SizeY
		c.game.GameLength = h.GameLength
		c.game.ExplosionRadius = h.ExplosionRadius
		c.game.BombTimer = h.BombTimer
		c.sendLobbySnapshot()

	case msg.AcceptedPlayer != nil:
		a := msg.AcceptedPlayer
		c.game.Players[a.PlayerID] = a.Player
		c.game.Scores[a.PlayerID] = 0
		c.sendLobbySnapshot()

	case msg.GameStarted != nil:
		c.game.Players = msg.GameStarted.Players
		c.game.Scores = make(map[uint8]uint32, len(c.game.Players))
		for id := range c.game.Players {
			c.game.Scores[id] = 0
		}
		c.setState(csPlaying)
		// No display snapshot yet: the first Turn(0) carries the
		// starting positions and initial blocks.

	case msg.Turn != nil:
		c.applyTurn(msg.Turn)

	case msg.GameEnded != nil:
		c.game.Turn = 0
		c.game.Players = make(map[uint8]protocol.Player)
		c.game.Positions = make(map[uint8]protocol.Position)
		c.game.Killed = make(map[uint8]bool)
		c.game.Blocks = nil
		c.game.Bombs = make(map[uint32]*bombState)
		c.game.Scores = msg.GameEnded.Scores
		c.setState(csLobby)
		c.sendLobbySnapshot()
	}
}

// applyTurn implements spec.md section 4.4's Turn handling: decrement
// bomb timers, apply events in order, settle kills into scores, remove
// destroyed blocks, emit the display snapshot, then clear explosions.
func (c *Client) applyTurn(t *protocol.ServerMessageTurn) {
	for _, b := range c.game.Bombs {
		if b.timer > 0 {
			b.timer--
		}
	}

	for _, ev := range t.Events {
		switch {
		case ev.BombPlaced != nil:
			c.game.Bombs[ev.BombPlaced.BombID] = &bombState{
				position: ev.BombPlaced.Position,
				timer:    c.game.BombTimer,
			}
		case ev.BombExploded != nil:
			c.applyExplosion(ev.BombExploded)
		case ev.PlayerMoved != nil:
			c.game.Positions[ev.PlayerMoved.PlayerID] = ev.PlayerMoved.Position
		case ev.BlockPlaced != nil:
			c.game.Blocks = append(c.game.Blocks, ev.BlockPlaced.Position)
		}
	}

	for id, killed := range c.game.Killed {
		if killed {
			c.game.Scores[id]++
			c.game.Killed[id] = false
		}
	}

	if len(c.game.blocksDestroyedStage) > 0 {
		remaining := c.game.Blocks[:0]
		for _, b := range c.game.Blocks {
			if !c.game.blocksDestroyedStage[b] {
				remaining = append(remaining, b)
			}
		}
		c.game.Blocks = remaining
		c.game.blocksDestroyedStage = make(map[protocol.Position]bool)
	}

	c.game.Turn = t.Turn
	c.sendGameSnapshot()
	c.game.Explosions = make(map[protocol.Position]bool)
}

// applyExplosion folds one BombExploded event into the kill/block
// staging sets and reconstructs its explosion geometry (spec.md section
// 4.4): four cardinal arms in a fixed order (up, down, right, left),
// each walking out to explosion_radius cells, stopping at a block (which
// itself still counts) or the board edge.
func (c *Client) applyExplosion(ev *protocol.EventBombExploded) {
	for _, playerID := range ev.RobotsDestroyed {
		c.game.Killed[playerID] = true
	}
	for _, pos := range ev.BlocksDestroyed {
		c.game.blocksDestroyedStage[pos] = true
	}

	var origin protocol.Position
	if bomb, ok := c.game.Bombs[ev.BombID]; ok {
		origin = bomb.position
	}
	delete(c.game.Bombs, ev.BombID)

	c.game.Explosions[origin] = true

	// A bomb sitting on a block (reachable only via the reserved
	// PlaceBlock/PlaceBomb path) blocks every arm at the origin itself,
	// matching robots-client.cpp's handle_event(EventBombExploded):
	// each arm's block test runs at t==0 before it ever steps outward.
	if !c.game.isBlock(origin) {
		arms := []protocol.Direction{protocol.Up, protocol.Down, protocol.Right, protocol.Left}
		for _, d := range arms {
			dx, dy := d.Unit()
			x, y := int(origin.X), int(origin.Y)
			for step := 0; step < int(c.game.ExplosionRadius); step++ {
				nx, ny := x+dx, y+dy
				if nx < 0 || ny < 0 || nx >= int(c.game.SizeX) || ny >= int(c.game.SizeY) {
					break
				}
				x, y = nx, ny
				pos := protocol.Position{X: uint16(x), Y: uint16(y)}
				c.game.Explosions[pos] = true
				if c.game.isBlock(pos) {
					break
				}
			}
		}
	}
}

func copyPlayers(m map[uint8]protocol.Player) map[uint8]protocol.Player {
	out := make(map[uint8]protocol.Player, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyScores(m map[uint8]uint32) map[uint8]uint32 {
	out := make(map[uint8]uint32, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyPositions(m map[uint8]protocol.Position) map[uint8]protocol.Position {
	out := make(map[uint8]protocol.Position, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (c *Client) sendDraw(msg protocol.DrawMessage) {
	buf, err := protocol.EncodeDrawMessage(msg)
	if err != nil {
		c.log.WithError(err).Error("failed to encode draw message")
		return
	}
	if _, err := c.display.Write(buf.Bytes()); err != nil {
		c.log.WithError(err).Warn("failed to send snapshot to display")
	}
}

func (c *Client) sendLobbySnapshot() {
	c.sendDraw(protocol.NewLobbyDrawMessage(protocol.DrawMessageLobby{
		ServerName:      c.game.ServerName,
		PlayersCount:    c.game.PlayersCount,
		SizeX:           c.game.SizeX,
		SizeY:           c.game.SizeY,
		GameLength:      c.game.GameLength,
		ExplosionRadius: c.game.ExplosionRadius,
		BombTimer:       c.game.BombTimer,
		Players:         copyPlayers(c.game.Players),
	}))
}

func (c *Client) sendGameSnapshot() {
	bombs := make([]protocol.Bomb, 0, len(c.game.Bombs))
	for _, b := range c.game.Bombs {
		bombs = append(bombs, protocol.Bomb{Position: b.position, Timer: b.timer})
	}

	explosions := make([]protocol.Position, 0, len(c.game.Explosions))
	for p := range c.game.Explosions {
		explosions = append(explosions, p)
	}
	sort.Slice(explosions, func(i, j int) bool { return explosions[i].Less(explosions[j]) })

	c.sendDraw(protocol.NewGameDrawMessage(protocol.DrawMessageGame{
		ServerName:      c.game.ServerName,
		SizeX:           c.game.SizeX,
		SizeY:           c.game.SizeY,
		GameLength:      c.game.GameLength,
		Turn:            c.game.Turn,
		Players:         copyPlayers(c.game.Players),
		PlayerPositions: copyPositions(c.game.Positions),
		Blocks:          append([]protocol.Position(nil), c.game.Blocks...),
		Bombs:           bombs,
		Explosions:      explosions,
		Scores:          copyScores(c.game.Scores),
	}))
}

// runDisplayForwarder blocks on UDP recv from the display, decodes one
// InputMessage per datagram (spec.md section 4.4), and translates it
// into a ClientMessage sent to the server. While in Lobby state every
// input is overridden with Join(player_name), regardless of what the
// display actually sent.
func (c *Client) runDisplayForwarder() {
	buf := make([]byte, 65507)
	for {
		n, err := c.display.Read(buf)
		if err != nil {
			c.log.WithError(err).Debug("display connection ended")
			c.requestShutdown()
			return
		}

		fixed := protocol.NewFixedBuffer(buf[:n])
		input, err := protocol.DecodeInputMessage(fixed)
		if err != nil {
			c.log.WithError(err).Warn("failed to decode input datagram, dropping")
			continue
		}
		if !fixed.Empty() {
			c.log.WithError(protocol.ErrTrailingData).Warn("dropping input datagram")
			continue
		}

		var out protocol.ClientMessage
		if c.State() == csLobby {
			out = protocol.NewJoinMessage(c.playerName)
		} else {
			switch {
			case input.PlaceBomb != nil:
				out = protocol.NewPlaceBombMessage()
			case input.PlaceBlock != nil:
				out = protocol.NewPlaceBlockMessage()
			case input.Move != nil:
				if input.Move.Direction > uint8(protocol.Left) {
					continue // silently dropped, per spec.md section 6
				}
				out = protocol.NewMoveMessage(input.Move.Direction)
			default:
				continue
			}
		}

		sendBuf, err := protocol.EncodeClientMessage(out)
		if err != nil {
			c.log.WithError(err).Error("failed to encode outgoing message")
			continue
		}
		if _, err := c.conn.Write(sendBuf.Bytes()); err != nil {
			c.log.WithError(err).Debug("failed to send to server")
			c.requestShutdown()
			return
		}
	}
}
