// Command h2wiredump replays an offline pcap capture through the HTTP/2
// frame and HPACK decoders and prints the decoded frame/header sequence.
package main

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"sort"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"
	"github.com/gopacket/gopacket/pcapgo"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"

	h2wire "github.com/domsolutions/h2wire"
)

var (
	pcapPath string
	port     uint16
)

var rootCmd = &cobra.Command{
	Use:   "h2wiredump",
	Short: "Replay an HTTP/2 stream captured in a pcap file through the frame/HPACK decoder",
	RunE:  run,
}

func init() {
	_, _ = maxprocs.Set()

	rootCmd.Flags().StringVar(&pcapPath, "pcap", "", "path to an offline pcap capture (required)")
	rootCmd.Flags().Uint16Var(&port, "port", 443, "TCP port carrying the HTTP/2 connection preface")
	_ = rootCmd.MarkFlagRequired("pcap")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	logger, err := zap.NewDevelopment()
	if err != nil {
		return errors.Wrap(err, "build logger")
	}
	defer logger.Sync() //nolint:errcheck

	payload, err := reassembleStream(pcapPath, port)
	if err != nil {
		return errors.Wrap(err, "reassemble stream")
	}
	logger.Info("reassembled stream payload", zap.Int("bytes", len(payload)))

	conn := h2wire.NewConn(bufio.NewReader(bytes.NewReader(payload)), 4096)

	for {
		fr, list, err := conn.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}

			var connErr *h2wire.ConnError
			if errors.As(err, &connErr) {
				logger.Error("connection decode failed", zap.Uint32("error_code", uint32(connErr.Code)), zap.Error(connErr.Err))
				return connErr
			}
			return err
		}

		logger.Info("frame", zap.Int("type", int(fr.Type())))

		if list == nil {
			continue
		}

		if method, ok := list.FindFirst(string(h2wire.StringMethod)); ok {
			path, _ := list.FindFirst(string(h2wire.StringPath))
			authority, _ := list.FindFirst(string(h2wire.StringAuthority))
			scheme, _ := list.FindFirst(string(h2wire.StringScheme))
			logger.Info("request", zap.String("method", method), zap.String("scheme", scheme), zap.String("authority", authority), zap.String("path", path))
		} else if status, ok := list.FindFirst(string(h2wire.StringStatus)); ok {
			logger.Info("response", zap.String("status", status))
		}

		for i := 0; i < list.Len(); i++ {
			hf := list.At(i)
			logger.Info("header", zap.String("name", hf.Name()), zap.String("value", hf.Value()))
		}
	}
}

// segment is one TCP segment's payload ordered by its starting sequence
// number, used to linearize a capture's packets into one byte stream.
type segment struct {
	seq     uint32
	payload []byte
}

// reassembleStream walks an offline pcap capture and concatenates the
// payload bytes of the first TCP conversation touching port, in sequence
// order. Retransmissions are deduplicated by sequence number; out-of-order
// arrival beyond a simple sort, and true gap/retransmission recovery, are
// not handled — a capture-replay tool has no peer to ask for a resend.
func reassembleStream(path string, port uint16) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	r, err := pcapgo.NewReader(f)
	if err != nil {
		return nil, errors.Wrap(err, "new pcap reader")
	}

	var segments []segment
	var clientSeen bool
	var clientPort layers.TCPPort

	for {
		data, _, err := r.ReadPacketData()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "read packet")
		}

		pkt := gopacket.NewPacket(data, r.LinkType(), gopacket.DecodeOptions{Lazy: true, NoCopy: true})
		tcpLayer := pkt.Layer(layers.LayerTypeTCP)
		if tcpLayer == nil {
			continue
		}
		tcp, _ := tcpLayer.(*layers.TCP)
		if len(tcp.Payload) == 0 {
			continue
		}

		// Only follow the direction flowing toward the listening port,
		// i.e. the client's bytes, which is where the HTTP/2 preface and
		// request frames originate, and only the conversation of the first
		// client port seen.
		if tcp.DstPort != layers.TCPPort(port) {
			continue
		}
		if !clientSeen {
			clientPort, clientSeen = tcp.SrcPort, true
		} else if tcp.SrcPort != clientPort {
			continue
		}

		segments = append(segments, segment{seq: tcp.Seq, payload: append([]byte(nil), tcp.Payload...)})
	}

	if len(segments) == 0 {
		return nil, errors.Errorf("no TCP payload found on port %d in %s", port, path)
	}

	sort.Slice(segments, func(i, j int) bool { return segments[i].seq < segments[j].seq })

	var out bytes.Buffer
	lastSeq := segments[0].seq - 1
	for _, seg := range segments {
		if seg.seq == lastSeq {
			continue // retransmission of the previous segment
		}
		out.Write(seg.payload)
		lastSeq = seg.seq
	}

	return out.Bytes(), nil
}
