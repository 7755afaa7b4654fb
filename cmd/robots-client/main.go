// Command robots-client connects to a robots-server and to a local
// display, mirroring server turn events into display snapshots and
// forwarding display input back to the server (spec.md section 4.4).
package main

import (
	"fmt"
	"net"
	"os"

	"github.com/mkwasowski/robots/internal/config"
	"github.com/mkwasowski/robots/internal/game"
	"github.com/mkwasowski/robots/internal/logging"
	"github.com/mkwasowski/robots/internal/netutil"
)

func main() {
	opts, err := config.LoadClientOptions(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "robots-client:", err)
		os.Exit(1)
	}

	log, err := logging.New(opts.LogLevel, opts.LogFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "robots-client:", err)
		os.Exit(1)
	}

	serverAddr, err := netutil.ResolveTCPAddr(opts.ServerAddress)
	if err != nil {
		log.WithError(err).Error("failed to resolve server address")
		os.Exit(1)
	}
	conn, err := net.DialTCP("tcp", nil, serverAddr)
	if err != nil {
		log.WithError(err).Error("failed to connect to server")
		os.Exit(1)
	}
	if err := conn.SetNoDelay(true); err != nil {
		log.WithError(err).Warn("failed to set TCP_NODELAY")
	}

	guiAddr, err := netutil.ResolveUDPAddr(opts.GUIAddress)
	if err != nil {
		log.WithError(err).Error("failed to resolve display address")
		os.Exit(1)
	}
	display, err := net.DialUDP("udp", &net.UDPAddr{Port: opts.Port}, guiAddr)
	if err != nil {
		log.WithError(err).Error("failed to open display socket")
		os.Exit(1)
	}

	log.WithField("server", opts.ServerAddress).WithField("display", opts.GUIAddress).Info("robots-client connected")

	c := game.NewClient(conn, display, opts.PlayerName, log)
	c.Run()
}
