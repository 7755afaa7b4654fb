// Command robots-pktdump captures the TCP conversation between a
// robots-client and a robots-server, either live or from a pcap file,
// and decodes it with the same wire codec both programs use. Grounded
// on the teacher repo's cmd/sniffer, swapping its PSO packet headers and
// decryption for this protocol's self-delimiting codec.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"

	"github.com/mkwasowski/robots/internal/protocol"
)

func main() {
	iface := flag.String("i", "", "network interface to capture live from")
	readFile := flag.String("r", "", "pcap file to read instead of a live interface")
	port := flag.Uint("port", 8080, "TCP port carrying the robots protocol")
	flag.Parse()

	handle, err := openHandle(*iface, *readFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "robots-pktdump:", err)
		os.Exit(1)
	}
	defer handle.Close()

	if err := handle.SetBPFFilter(fmt.Sprintf("tcp port %d", *port)); err != nil {
		fmt.Fprintln(os.Stderr, "robots-pktdump:", err)
		os.Exit(1)
	}

	streams := map[string][]byte{}
	source := gopacket.NewPacketSource(handle, handle.LinkType())
	for packet := range source.Packets() {
		netLayer := packet.NetworkLayer()
		tcpLayer := packet.Layer(layers.LayerTypeTCP)
		if netLayer == nil || tcpLayer == nil {
			continue
		}
		tcp, ok := tcpLayer.(*layers.TCP)
		if !ok || len(tcp.Payload) == 0 {
			continue
		}

		key := netLayer.NetworkFlow().String() + "/" + tcp.TransportFlow().String()
		streams[key] = append(streams[key], tcp.Payload...)

		toServer := uint16(tcp.DstPort) == uint16(*port)
		drainStream(streams, key, toServer)
	}
}

func openHandle(iface, readFile string) (*pcap.Handle, error) {
	switch {
	case readFile != "":
		return pcap.OpenOffline(readFile)
	case iface != "":
		return pcap.OpenLive(iface, 65536, true, pcap.BlockForever)
	default:
		return nil, fmt.Errorf("one of -i or -r is required")
	}
}

// drainStream decodes as many complete messages as are currently
// buffered for key, printing each with spew and trimming the consumed
// prefix. An *protocol.Underflow means the rest of the message hasn't
// arrived yet; drainStream simply waits for more packets.
func drainStream(streams map[string][]byte, key string, toServer bool) {
	for {
		accum := streams[key]
		if len(accum) == 0 {
			return
		}
		buf := protocol.NewFixedBuffer(accum)

		var consumed int
		var decodeErr error
		if toServer {
			msg, err := protocol.DecodeClientMessage(buf)
			decodeErr = err
			if err == nil {
				consumed = len(accum) - len(buf.Bytes())
				spew.Dump(msg)
			}
		} else {
			msg, err := protocol.DecodeServerMessage(buf)
			decodeErr = err
			if err == nil {
				consumed = len(accum) - len(buf.Bytes())
				spew.Dump(msg)
			}
		}

		if decodeErr != nil {
			if _, incomplete := decodeErr.(*protocol.Underflow); incomplete {
				return
			}
			fmt.Fprintln(os.Stderr, "robots-pktdump: decode error:", decodeErr)
			streams[key] = nil
			return
		}

		streams[key] = accum[consumed:]
	}
}
