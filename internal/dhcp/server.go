package dhcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"sync"
	"time"

	"github.com/google/gopacket/layers"
	"go.uber.org/zap"

	"github.com/muurk/softap/internal/logging"
)

// ErrClosed is returned by Serve when the packet connection is closed underneath it.
var ErrClosed = errors.New("dhcp server connection closed")

// Stats counts the replies sent by a Server.
type Stats struct {
	Offers   int
	Acks     int
	Naks     int
	Releases int
	Declines int
	Ignored  int
}

// Server answers DHCP requests on a packet connection using a Leaser.
type Server struct {
	cfg    Config
	leaser Leaser
	logger *zap.Logger

	mu    sync.Mutex
	stats Stats
}

// NewServer validates cfg and returns a server.
func NewServer(cfg Config, leaser Leaser, logger *zap.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if leaser == nil {
		return nil, fmt.Errorf("%w: no leaser", ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{cfg: cfg, leaser: leaser, logger: logger}, nil
}

// Config returns the server configuration.
func (s *Server) Config() Config {
	return s.cfg
}

// Stats returns a copy of the reply counters.
func (s *Server) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Serve reads requests from conn and writes replies until ctx is done or
// the connection fails. conn is not closed by Serve.
func (s *Server) Serve(ctx context.Context, conn net.PacketConn) error {
	s.logger.Info("Starting DHCP server",
		logging.Addr("server", s.cfg.ServerIP),
		zap.Duration("lease_time", s.cfg.LeaseTime),
		zap.String("captive_portal", s.cfg.PortalURL()),
	)

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			// Unblock ReadFrom.
			_ = conn.SetReadDeadline(time.Now())
		case <-stop:
		}
	}()

	buf := make([]byte, 1500)
	for {
		n, from, err := conn.ReadFrom(buf)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if errors.Is(err, net.ErrClosed) {
				return ErrClosed
			}
			return fmt.Errorf("read dhcp request: %w", err)
		}

		req, err := Decode(buf[:n])
		if err != nil {
			s.logger.Debug("Dropping packet", zap.Stringer("from", from), zap.Error(err))
			continue
		}

		reply, dst := s.Respond(req)
		if reply == nil {
			continue
		}

		out, err := Encode(reply)
		if err != nil {
			return err
		}
		if _, err := conn.WriteTo(out, dst); err != nil {
			return fmt.Errorf("write dhcp %s to %s: %w", MessageType(reply), dst, err)
		}
	}
}

// Respond computes the reply for a single request and where to send it.
// A nil reply means the request is ignored.
func (s *Server) Respond(req *layers.DHCPv4) (*layers.DHCPv4, *net.UDPAddr) {
	if req.Operation != layers.DHCPOpRequest {
		s.count(func(st *Stats) { st.Ignored++ })
		return nil, nil
	}

	mac := req.ClientHWAddr
	msgType := MessageType(req)
	log := s.logger.With(zap.Stringer("type", msgType), zap.String("mac", mac.String()), zap.Uint32("xid", req.Xid))

	switch msgType {
	case layers.DHCPMsgTypeDiscover:
		addr, ok := s.leaser.Offer(mac)
		if !ok {
			log.Debug("No address to offer")
			s.count(func(st *Stats) { st.Ignored++ })
			return nil, nil
		}
		log.Info("Offering lease", logging.Addr("addr", addr))
		s.count(func(st *Stats) { st.Offers++ })
		reply := s.leaseReply(req, layers.DHCPMsgTypeOffer, addr)
		return reply, s.destination(req)

	case layers.DHCPMsgTypeRequest:
		if sid, ok := AddrOption(req, layers.DHCPOptServerID); ok && sid != s.cfg.ServerIP {
			log.Debug("Client selected another server", logging.Addr("server", sid))
			s.count(func(st *Stats) { st.Ignored++ })
			return nil, nil
		}

		requested, ok := AddrOption(req, layers.DHCPOptRequestIP)
		if !ok {
			requested = addrOf(req.ClientIP)
		}
		if !requested.IsValid() {
			requested, _ = s.leaser.Offer(mac)
		}

		if !s.leaser.Bind(mac, requested) {
			log.Info("Rejecting request", logging.Addr("requested", requested))
			s.count(func(st *Stats) { st.Naks++ })
			return s.nak(req), broadcastAddr()
		}
		log.Info("Lease acknowledged", logging.Addr("addr", requested))
		s.count(func(st *Stats) { st.Acks++ })
		return s.leaseReply(req, layers.DHCPMsgTypeAck, requested), s.destination(req)

	case layers.DHCPMsgTypeRelease:
		log.Info("Lease released")
		s.leaser.Release(mac)
		s.count(func(st *Stats) { st.Releases++ })
		return nil, nil

	case layers.DHCPMsgTypeDecline:
		requested, _ := AddrOption(req, layers.DHCPOptRequestIP)
		log.Warn("Client declined lease, address may be in use", logging.Addr("addr", requested))
		s.leaser.Release(mac)
		s.count(func(st *Stats) { st.Declines++ })
		return nil, nil

	case layers.DHCPMsgTypeInform:
		s.count(func(st *Stats) { st.Acks++ })
		reply := s.baseReply(req, layers.DHCPMsgTypeAck)
		reply.ClientIP = req.ClientIP
		reply.Options = append(reply.Options, s.parameterOptions()...)
		return reply, s.destination(req)

	default:
		log.Debug("Ignoring message")
		s.count(func(st *Stats) { st.Ignored++ })
		return nil, nil
	}
}

func (s *Server) baseReply(req *layers.DHCPv4, t layers.DHCPMsgType) *layers.DHCPv4 {
	return &layers.DHCPv4{
		Operation:    layers.DHCPOpReply,
		HardwareType: layers.LinkTypeEthernet,
		Xid:          req.Xid,
		Flags:        req.Flags,
		ClientIP:     net.IPv4zero.To4(),
		YourClientIP: net.IPv4zero.To4(),
		NextServerIP: net.IPv4zero.To4(),
		RelayAgentIP: ipOf(addrOf(req.RelayAgentIP)),
		ClientHWAddr: req.ClientHWAddr,
		Options: layers.DHCPOptions{
			layers.NewDHCPOption(layers.DHCPOptMessageType, []byte{byte(t)}),
			addrOpt(layers.DHCPOptServerID, s.cfg.ServerIP),
		},
	}
}

func (s *Server) leaseReply(req *layers.DHCPv4, t layers.DHCPMsgType, addr netip.Addr) *layers.DHCPv4 {
	reply := s.baseReply(req, t)
	reply.YourClientIP = ipOf(addr)

	lease := s.cfg.leaseSeconds()
	reply.Options = append(reply.Options,
		uint32Opt(layers.DHCPOptLeaseTime, lease),
		uint32Opt(layers.DHCPOptT1, lease/2),
		uint32Opt(layers.DHCPOptT2, uint32(uint64(lease)*7/8)),
	)
	reply.Options = append(reply.Options, s.parameterOptions()...)
	return reply
}

func (s *Server) parameterOptions() []layers.DHCPOption {
	var opts []layers.DHCPOption
	if s.cfg.Subnet.IsValid() {
		opts = append(opts, addrOpt(layers.DHCPOptSubnetMask, s.cfg.Subnet))
	}
	if len(s.cfg.Gateways) > 0 {
		opts = append(opts, addrOpt(layers.DHCPOptRouter, s.cfg.Gateways...))
	}
	if len(s.cfg.DNS) > 0 {
		opts = append(opts, addrOpt(layers.DHCPOptDNS, s.cfg.DNS...))
	}
	if url := s.cfg.PortalURL(); url != "" {
		opts = append(opts, layers.NewDHCPOption(OptCaptivePortal, []byte(url)))
	}
	return opts
}

func (s *Server) nak(req *layers.DHCPv4) *layers.DHCPv4 {
	reply := s.baseReply(req, layers.DHCPMsgTypeNak)
	reply.Flags |= flagBroadcast
	return reply
}

// destination follows RFC 2131 §4.1: relay first, then unicast to a
// configured client without the broadcast bit, else broadcast.
func (s *Server) destination(req *layers.DHCPv4) *net.UDPAddr {
	if relay := addrOf(req.RelayAgentIP); relay.IsValid() {
		return &net.UDPAddr{IP: ipOf(relay), Port: ServerPort}
	}
	if ci := addrOf(req.ClientIP); ci.IsValid() && req.Flags&flagBroadcast == 0 {
		return &net.UDPAddr{IP: ipOf(ci), Port: ClientPort}
	}
	return broadcastAddr()
}

func broadcastAddr() *net.UDPAddr {
	return &net.UDPAddr{IP: net.IPv4bcast.To4(), Port: ClientPort}
}

func (s *Server) count(f func(*Stats)) {
	s.mu.Lock()
	f(&s.stats)
	s.mu.Unlock()
}
