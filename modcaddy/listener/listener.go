package listener

import (
	"errors"
	"io"
	"net"

	"github.com/caddyserver/caddy/v2"
	"github.com/caddyserver/caddy/v2/caddyconfig/caddyfile"
	"go.uber.org/zap"

	"github.com/tlsmirror/clienthello/internal/utils"
	"github.com/tlsmirror/clienthello/modcaddy/app"
)

func init() {
	caddy.RegisterModule(ListenerWrapper{})
}

// ListenerWrapper implements caddy.ListenerWrapper. It peeks the TLS
// ClientHello off incoming TCP connections before the "tls" wrapper
// consumes them, and sniffs QUIC client Initial packets off the wire when
// UDP capture is enabled.
//
// It must be placed before "tls" in the listener_wrappers directive:
//
//	listener_wrappers {
//		clienthello
//		tls
//	}
type ListenerWrapper struct {
	TCP bool `json:"tcp,omitempty"`
	UDP bool `json:"udp,omitempty"`

	logger       *zap.Logger
	reservoir    *app.Reservoir
	udpListener  *net.IPConn
	udp6Listener *net.IPConn
}

// CaddyModule returns the Caddy module information.
func (ListenerWrapper) CaddyModule() caddy.ModuleInfo { // skipcq: GO-W1029
	return caddy.ModuleInfo{
		ID:  "caddy.listeners.clienthello",
		New: func() caddy.Module { return new(ListenerWrapper) },
	}
}

func (lw *ListenerWrapper) Cleanup() error { // skipcq: GO-W1029
	var err error
	if lw.udpListener != nil {
		err = lw.udpListener.Close()
	}
	if lw.udp6Listener != nil {
		if cerr := lw.udp6Listener.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func (lw *ListenerWrapper) Provision(ctx caddy.Context) error { // skipcq: GO-W1029
	lw.logger = ctx.Logger(lw)

	if !ctx.AppIsConfigured(app.CaddyAppID) {
		return errors.New("clienthello listener: global reservoir is not configured")
	}
	a, err := ctx.App(app.CaddyAppID)
	if err != nil {
		return err
	}
	lw.reservoir = a.(*app.Reservoir)

	// Raw IP sockets so QUIC datagrams can be observed without owning
	// the UDP listener Caddy itself serves HTTP/3 on.
	if lw.UDP && lw.udpListener == nil {
		lw.udpListener, err = net.ListenIP("ip4:udp", &net.IPAddr{})
		if err != nil {
			return err
		}
		go lw.udpLoop(lw.udpListener)

		lw.udp6Listener, err = net.ListenIP("ip6:udp", &net.IPAddr{})
		if err != nil {
			return err
		}
		go lw.udpLoop(lw.udp6Listener)

		lw.logger.Info("clienthello listener UDP capture started")
	}

	lw.logger.Info("clienthello listener provisioned")
	return nil
}

func (lw *ListenerWrapper) udpLoop(ipConn *net.IPConn) { // skipcq: GO-W1029
	for {
		var buf [2048]byte
		n, ipAddr, err := ipConn.ReadFromIP(buf[:])
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) || errors.Is(err, net.ErrClosed) {
				return // listener closed
			}
			lw.logger.Error("UDP read error", zap.Error(err))
			continue
		}

		udpPkt, err := utils.ParseUDPPacket(buf[:n])
		if err != nil {
			lw.logger.Error("failed to parse UDP packet", zap.Error(err))
			continue
		}
		if udpPkt.DstPort != 443 {
			continue
		}
		udpAddr := &net.UDPAddr{IP: ipAddr.IP, Port: int(udpPkt.SrcPort)}

		if err := lw.reservoir.QUICFingerprinter().HandleUDPPayload(udpAddr.String(), udpPkt.Payload); err != nil {
			lw.logger.Debug("QUIC Initial not accepted", zap.String("from", udpAddr.String()), zap.Error(err))
		}
	}
}

func (lw *ListenerWrapper) WrapListener(l net.Listener) net.Listener { // skipcq: GO-W1029
	lw.logger.Info("wrapping listener " + l.Addr().String() + " on network " + l.Addr().Network())

	switch l.Addr().Network() {
	case "tcp", "tcp4", "tcp6":
		if lw.TCP {
			return &tlsListener{
				Listener:  l,
				reservoir: lw.reservoir,
				logger:    lw.logger,
			}
		}
		lw.logger.Debug("TCP not enabled, skipping")
	default:
		lw.logger.Debug("not TCP, skipping")
	}

	return l
}

type tlsListener struct {
	net.Listener
	reservoir *app.Reservoir
	logger    *zap.Logger
}

func (l *tlsListener) Accept() (net.Conn, error) {
	conn, err := l.Listener.Accept()
	if err != nil {
		return conn, err
	}

	rewound, err := l.reservoir.TLSFingerprinter().HandleTCPConn(conn)
	if err != nil {
		l.logger.Error("failed to read ClientHello from "+conn.RemoteAddr().String(), zap.Error(err))
		return conn, nil // hand the connection over untouched
	}
	l.logger.Debug("stored ClientHello from " + conn.RemoteAddr().String())
	return rewound, nil
}

func (lw *ListenerWrapper) UnmarshalCaddyfile(d *caddyfile.Dispenser) error { // skipcq: GO-W1029
	for d.Next() {
		for d.NextBlock(0) {
			switch d.Val() {
			case "tcp":
				if lw.TCP {
					return d.Err("clienthello: tcp already specified")
				}
				lw.TCP = true
			case "udp":
				if lw.UDP {
					return d.Err("clienthello: udp already specified")
				}
				lw.UDP = true
			}
		}
	}
	return nil
}

// Interface guards
var (
	_ caddy.CleanerUpper    = (*ListenerWrapper)(nil)
	_ caddy.Provisioner     = (*ListenerWrapper)(nil)
	_ caddy.ListenerWrapper = (*ListenerWrapper)(nil)
	_ caddyfile.Unmarshaler = (*ListenerWrapper)(nil)
)
