package fake

import (
	"errors"
	"net"
	"strconv"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/mtabot/internal/ase"
)

// Server is a local ASE responder that answers every datagram with a reply
// describing its current roster.
type Server struct {
	conn    net.PacketConn
	info    ase.ServerInfo
	rules   []ase.Rule
	players []ase.Player
	mu      sync.RWMutex
	wg      sync.WaitGroup
}

// Listen opens the responder on 127.0.0.1:(gamePort+123). A gamePort of 0
// binds an ephemeral query port; GamePort reports the matching game port.
func Listen(gamePort int, players []ase.Player) (*Server, error) {
	addr := "127.0.0.1:0"
	if gamePort > 0 {
		addr = net.JoinHostPort("127.0.0.1", strconv.Itoa(gamePort+ase.QueryPortOffset))
	}

	conn, err := net.ListenPacket("udp4", addr)
	if err != nil {
		return nil, err
	}

	s := &Server{
		conn:    conn,
		players: players,
		rules:   []ase.Rule{{Key: "weather", Value: "1"}, {Key: "gravity", Value: "0.008"}},
	}
	s.info = ase.ServerInfo{
		Port:       s.GamePort(),
		Name:       "Fake MTA Server",
		GameMode:   "Freeroam",
		Map:        "San Andreas",
		Version:    "1.6",
		MaxPlayers: 128,
	}

	s.wg.Add(1)
	go s.serve()

	return s, nil
}

// GamePort returns the game port whose query port this server listens on.
func (s *Server) GamePort() int {
	return s.conn.LocalAddr().(*net.UDPAddr).Port - ase.QueryPortOffset
}

// SetPlayers replaces the roster served from now on.
func (s *Server) SetPlayers(players []ase.Player) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players = players
}

// Close stops the responder and waits for the serve loop to exit.
func (s *Server) Close() error {
	err := s.conn.Close()
	s.wg.Wait()
	return err
}

func (s *Server) serve() {
	defer s.wg.Done()

	buf := make([]byte, 64)
	for {
		n, addr, err := s.conn.ReadFrom(buf)
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				log.Error().Err(err).Msg("Fake ASE responder stopped")
			}
			return
		}

		reply := s.reply(buf[:n])
		if reply == nil {
			continue
		}
		if _, err := s.conn.WriteTo(reply, addr); err != nil {
			log.Debug().Err(err).Str("peer", addr.String()).Msg("Fake ASE reply failed")
		}
	}
}

// reply builds the datagram for the request. The variant follows the request payload.
func (s *Server) reply(req []byte) []byte {
	var v ase.Variant
	switch string(req) {
	case string(ase.VariantTagged.Query):
		v = ase.VariantTagged
	case string(ase.VariantLegacy.Query):
		v = ase.VariantLegacy
	default:
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	info := s.info
	info.Players = len(s.players)

	b := ase.Builder{Variant: v, Server: info, Rules: s.rules, Players: s.players}
	return b.Bytes()
}
