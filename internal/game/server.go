package game

import (
	"io"
	"net"
	"sort"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mkwasowski/robots/internal/protocol"
)

// Server is the authoritative half of spec.md section 4.3: one game-loop
// goroutine driving Lobby -> Maintenance -> Playing -> Lobby, fed by one
// acceptor goroutine and a pool of per-connection goroutines, all sharing
// a session (spec.md section 4.5).
type Server struct {
	cfg     Config
	session *session
	rng     *RNG
	log     *logrus.Logger
	state   int32 // ServerState, accessed via setState/State
}

// NewServer builds a Server ready to Run against an already-bound
// listener.
func NewServer(cfg Config, log *logrus.Logger) *Server {
	return &Server{
		cfg:     cfg,
		session: newSession(cfg),
		rng:     NewRNG(cfg.Seed),
		log:     log,
		state:   int32(StateLobby),
	}
}

// State reports the server's current place in the Lobby -> Maintenance ->
// Playing cycle. Safe to call from any goroutine.
func (s *Server) State() ServerState {
	return ServerState(atomic.LoadInt32(&s.state))
}

func (s *Server) setState(st ServerState) {
	atomic.StoreInt32(&s.state, int32(st))
}

// Run drives the acceptor loop and repeated Lobby/Maintenance/Playing
// cycles forever. It returns only if the listener's Accept loop fails
// fatally; per spec.md section 5, there is no other shutdown path short
// of process termination.
func (s *Server) Run(ln net.Listener) error {
	acceptErr := make(chan error, 1)
	go func() { acceptErr <- s.acceptLoop(ln) }()

	for {
		select {
		case err := <-acceptErr:
			return err
		default:
		}
		s.setState(StateLobby)
		s.log.WithField("players_count", s.cfg.PlayersCount).WithField("state", s.State()).Info("entering lobby")
		s.session.waitForLobbyFull()

		s.setState(StateMaintenance)
		s.log.WithField("state", s.State()).Info("lobby filled, seeding board")
		s.runMaintenance()

		s.setState(StatePlaying)
		s.log.WithField("game_length", s.cfg.GameLength).WithField("state", s.State()).Info("game started")
		s.runPlaying()

		s.log.Info("game ended, returning to lobby")
		s.session.reset()
	}
}

func (s *Server) acceptLoop(ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			s.log.WithError(err).Error("accept failed")
			return err
		}
		if tcp, ok := conn.(*net.TCPConn); ok {
			if err := tcp.SetNoDelay(true); err != nil {
				s.log.WithError(err).Warn("failed to set TCP_NODELAY")
			}
		}
		go s.handleClient(conn)
	}
}

func (s *Server) reader(conn net.Conn) protocol.Provider {
	return func(n int) ([]byte, error) {
		buf := make([]byte, n)
		if _, err := io.ReadFull(conn, buf); err != nil {
			return nil, err
		}
		return buf, nil
	}
}

func (s *Server) send(conn net.Conn, msg protocol.ServerMessage) error {
	buf, err := protocol.EncodeServerMessage(msg)
	if err != nil {
		return err
	}
	_, err = conn.Write(buf.Bytes())
	return err
}

// broadcast writes msg to every currently connected client, sequentially,
// holding the clients lock for the whole operation (spec.md section 4.5:
// broadcasts hold the clients mutex for the duration of a full send).
// That, combined with handleClient enrolling a connection only after its
// Hello and roster replay are already written, is what keeps a late
// joiner (spec.md section 8, scenario 4) from ever observing a Turn
// ahead of its Hello. A write failure abandons that connection without
// blocking the others; its own handleClient goroutine notices the
// closed socket and cleans up.
func (s *Server) broadcast(msg protocol.ServerMessage) {
	s.session.clientsMu.Lock()
	defer s.session.clientsMu.Unlock()
	for _, c := range s.session.clients {
		if err := s.send(c.conn, msg); err != nil {
			s.log.WithError(err).WithField("addr", c.addr).Warn("broadcast write failed, abandoning connection")
			c.conn.Close()
		}
	}
}

func (s *Server) helloMessage() protocol.ServerMessage {
	return protocol.NewHelloMessage(protocol.ServerMessageHello{
		ServerName:      s.cfg.ServerName,
		PlayersCount:    s.cfg.PlayersCount,
		SizeX:           s.cfg.SizeX,
		SizeY:           s.cfg.SizeY,
		GameLength:      s.cfg.GameLength,
		ExplosionRadius: s.cfg.ExplosionRadius,
		BombTimer:       s.cfg.BombTimer,
	})
}

// handleClient owns one TCP connection for its lifetime, across however
// many Lobby/Playing cycles the server runs: it sends Hello, replays the
// current roster (the only catch-up a late joiner gets, per spec.md
// section 9), then reads ClientMessages and either admits the connection
// or latches its intent, depending on whether the session still
// considers it admitted. Admission state lives on the session (cleared
// by session.reset() at finish_game), not a local variable, so a
// persistent client can rejoin the next lobby once its prior game ends.
//
// Hello and the roster replay are written before the connection is
// enrolled in the session's clients map, so the game loop's broadcast
// (which holds the clients lock for its whole send) can never write a
// Turn to this socket ahead of its own catch-up state.
func (s *Server) handleClient(conn net.Conn) {
	addr := conn.RemoteAddr().String()
	log := s.log.WithField("addr", addr)
	defer conn.Close()

	if err := s.send(conn, s.helloMessage()); err != nil {
		log.WithError(err).Debug("failed to send hello")
		return
	}

	for id, p := range s.session.roster() {
		if err := s.send(conn, protocol.NewAcceptedPlayerMessage(id, p)); err != nil {
			log.WithError(err).Debug("failed to replay roster")
			return
		}
	}

	c := &clientInfo{conn: conn, addr: addr}
	s.session.addClient(c)
	defer s.session.removeClient(addr)

	buf := protocol.NewStreamingBuffer(s.reader(conn))
	for {
		msg, err := protocol.DecodeClientMessage(buf)
		if err != nil {
			if err == protocol.ErrInvalidMessage {
				log.Warn("invalid message, disconnecting")
			} else {
				log.WithError(err).Debug("connection closed")
			}
			return
		}

		if msg.Move != nil && !protocol.Direction(msg.Move.Direction).Valid() {
			log.WithField("direction", msg.Move.Direction).Warn("out-of-range direction, disconnecting")
			return
		}

		if !s.session.isAdmitted(c) {
			if msg.Join == nil {
				continue
			}
			id, ok := s.session.admit(c, msg.Join.Name)
			if !ok {
				continue
			}
			s.broadcast(protocol.NewAcceptedPlayerMessage(id, protocol.Player{Name: msg.Join.Name, Address: addr}))
			continue
		}

		if msg.Join != nil {
			continue
		}
		s.session.latchIntent(c, msg)
	}
}

// runMaintenance is the transient state between Lobby and Playing: pick
// random starting positions for every admitted player and scatter
// initial_blocks blocks, bundled as turn 0's event list.
func (s *Server) runMaintenance() {
	s.broadcast(protocol.NewGameStartedMessage(s.session.roster()))

	var events []protocol.Event

	s.session.playersMu.Lock()
	ids := make([]uint8, 0, len(s.session.players))
	for id := range s.session.players {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		pos := protocol.Position{
			X: uint16(s.rng.Intn(int(s.cfg.SizeX))),
			Y: uint16(s.rng.Intn(int(s.cfg.SizeY))),
		}
		s.session.players[id].position = pos
		events = append(events, protocol.NewPlayerMovedEvent(id, pos))
	}
	s.session.playersMu.Unlock()

	for i := 0; i < int(s.cfg.InitialBlocks); i++ {
		pos := protocol.Position{
			X: uint16(s.rng.Intn(int(s.cfg.SizeX))),
			Y: uint16(s.rng.Intn(int(s.cfg.SizeY))),
		}
		events = append(events, protocol.NewBlockPlacedEvent(pos))
	}

	turn := protocol.NewTurnMessage(0, events)
	s.broadcast(turn)
	s.session.recordTurn(0, turn)
}

// runPlaying is the per-turn loop for turns 1..game_length-1, followed by
// GameEnded. Turn 0 was already broadcast by runMaintenance.
func (s *Server) runPlaying() {
	for t := uint16(1); t < s.cfg.GameLength; t++ {
		time.Sleep(s.cfg.TurnDuration)

		intents := s.session.takeIntents()
		events := s.resolveTurn(intents)

		turn := protocol.NewTurnMessage(t, events)
		s.broadcast(turn)
		s.session.recordTurn(t, turn)
	}

	s.broadcast(protocol.NewGameEndedMessage(s.session.scores()))
}

// resolveTurn applies each player's latched intent in ascending
// player_id order (spec.md section 4.3) and returns the resulting
// events. PlaceBomb and PlaceBlock are accepted but inert (spec.md
// section 9, open question preserved as specified).
func (s *Server) resolveTurn(intents map[uint8]protocol.ClientMessage) []protocol.Event {
	ids := make([]uint8, 0, len(intents))
	for id := range intents {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var events []protocol.Event

	s.session.playersMu.Lock()
	defer s.session.playersMu.Unlock()

	for _, id := range ids {
		msg := intents[id]
		if msg.Move == nil {
			continue
		}
		p, ok := s.session.players[id]
		if !ok {
			continue
		}
		dx, dy := protocol.Direction(msg.Move.Direction).Unit()
		nx := int(p.position.X) + dx
		ny := int(p.position.Y) + dy
		if nx < 0 || ny < 0 || nx >= int(s.cfg.SizeX) || ny >= int(s.cfg.SizeY) {
			continue
		}
		p.position = protocol.Position{X: uint16(nx), Y: uint16(ny)}
		events = append(events, protocol.NewPlayerMovedEvent(id, p.position))
	}
	return events
}

func (s *session) scores() map[uint8]uint32 {
	s.playersMu.Lock()
	defer s.playersMu.Unlock()
	out := make(map[uint8]uint32, len(s.players))
	for id, p := range s.players {
		out[id] = p.score
	}
	return out
}
