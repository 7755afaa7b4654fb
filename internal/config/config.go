// Package config builds the CLI surface of spec.md section 6 for both
// binaries, grounded on the teacher repo's viper-based configuration
// idiom (internal/core/config.go): pflag registers the flags, viper
// binds them and layers a ROBOTS_<FLAG> environment fallback on top
// (dashes become underscores), so an operator can set any flag via the
// environment without changing a launch script.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/mkwasowski/robots/internal/game"
)

// ServerOptions is everything cmd/robots-server needs to start: the
// game.Config plus the ambient flags (port, seed source, logging,
// debug).
type ServerOptions struct {
	Game       game.Config
	Port       int
	DebugPprof bool
	LogLevel   string
	LogFile    string
}

func newViper(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("ROBOTS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}
	return v, nil
}

// LoadServerOptions parses args (normally os.Args[1:]) against the
// server's CLI surface (spec.md section 6) and returns the resolved
// options, or an Operator-class error (spec.md section 7) on failure.
func LoadServerOptions(args []string) (*ServerOptions, error) {
	fs := pflag.NewFlagSet("robots-server", pflag.ContinueOnError)
	fs.String("server-name", "robots-server", "name advertised in the Hello message")
	fs.Int("players-count", 2, "number of players admitted before a game starts")
	fs.Int("size-x", 20, "board width in cells")
	fs.Int("size-y", 20, "board height in cells")
	fs.Int("game-length", 100, "number of turns per game")
	fs.Int("explosion-radius", 3, "bomb explosion radius in cells")
	fs.Int("initial-blocks", 20, "number of blocks scattered at game start")
	fs.Int("bomb-timer", 5, "turns before a placed bomb explodes")
	fs.Int64("turn-duration", 500, "milliseconds between turns")
	fs.Int("port", 8080, "TCP port to listen on")
	fs.Int64("seed", 0, "RNG seed; 0 selects the wall clock")
	fs.Bool("debug-pprof", false, "expose a pprof endpoint on localhost:6060")
	fs.String("log-level", "info", "logrus level (panic/fatal/error/warn/info/debug/trace)")
	fs.String("log-file", "", "file to append logs to; empty means stderr")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	v, err := newViper(fs)
	if err != nil {
		return nil, err
	}

	playersCount := v.GetInt("players-count")
	if playersCount < 1 || playersCount > 255 {
		return nil, fmt.Errorf("players-count must be in [1, 255], got %d", playersCount)
	}

	seed := v.GetInt64("seed")
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &ServerOptions{
		Game: game.Config{
			ServerName:      v.GetString("server-name"),
			PlayersCount:    uint8(playersCount),
			SizeX:           uint16(v.GetInt("size-x")),
			SizeY:           uint16(v.GetInt("size-y")),
			GameLength:      uint16(v.GetInt("game-length")),
			ExplosionRadius: uint16(v.GetInt("explosion-radius")),
			InitialBlocks:   uint16(v.GetInt("initial-blocks")),
			BombTimer:       uint16(v.GetInt("bomb-timer")),
			TurnDuration:    time.Duration(v.GetInt64("turn-duration")) * time.Millisecond,
			Seed:            seed,
		},
		Port:       v.GetInt("port"),
		DebugPprof: v.GetBool("debug-pprof"),
		LogLevel:   v.GetString("log-level"),
		LogFile:    v.GetString("log-file"),
	}, nil
}

// ClientOptions is everything cmd/robots-client needs to start.
type ClientOptions struct {
	GUIAddress    string
	PlayerName    string
	Port          int
	ServerAddress string
	LogLevel      string
	LogFile       string
}

// LoadClientOptions parses args against the client's CLI surface
// (spec.md section 6). gui-address, player-name, and server-address are
// required; their absence is an Operator-class error.
func LoadClientOptions(args []string) (*ClientOptions, error) {
	fs := pflag.NewFlagSet("robots-client", pflag.ContinueOnError)
	fs.String("gui-address", "", "host:port of the local display (required)")
	fs.String("player-name", "", "name to join the game with (required)")
	fs.Int("port", 0, "local UDP port to bind for the display conversation")
	fs.String("server-address", "", "host:port of the game server (required)")
	fs.String("log-level", "info", "logrus level (panic/fatal/error/warn/info/debug/trace)")
	fs.String("log-file", "", "file to append logs to; empty means stderr")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	v, err := newViper(fs)
	if err != nil {
		return nil, err
	}

	opts := &ClientOptions{
		GUIAddress:    v.GetString("gui-address"),
		PlayerName:    v.GetString("player-name"),
		Port:          v.GetInt("port"),
		ServerAddress: v.GetString("server-address"),
		LogLevel:      v.GetString("log-level"),
		LogFile:       v.GetString("log-file"),
	}
	switch {
	case opts.GUIAddress == "":
		return nil, fmt.Errorf("gui-address is required")
	case opts.PlayerName == "":
		return nil, fmt.Errorf("player-name is required")
	case opts.ServerAddress == "":
		return nil, fmt.Errorf("server-address is required")
	}
	return opts, nil
}
