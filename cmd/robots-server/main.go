// Command robots-server runs the authoritative game server (spec.md
// section 4.3): it accepts TCP clients, fills a lobby, and drives
// repeated fixed-length games.
package main

import (
	"fmt"
	"net"
	"os"

	"github.com/mkwasowski/robots/internal/config"
	"github.com/mkwasowski/robots/internal/debugutil"
	"github.com/mkwasowski/robots/internal/game"
	"github.com/mkwasowski/robots/internal/logging"
)

func main() {
	opts, err := config.LoadServerOptions(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "robots-server:", err)
		os.Exit(1)
	}

	log, err := logging.New(opts.LogLevel, opts.LogFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "robots-server:", err)
		os.Exit(1)
	}

	if opts.DebugPprof {
		debugutil.StartPprofServer("localhost:6060", log)
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", opts.Port))
	if err != nil {
		log.WithError(err).Error("failed to listen")
		os.Exit(1)
	}
	defer ln.Close()

	log.WithField("port", opts.Port).Info("robots-server listening")

	srv := game.NewServer(opts.Game, log)
	if err := srv.Run(ln); err != nil {
		log.WithError(err).Error("server exited")
		os.Exit(1)
	}
}
