package app

import (
	"errors"
	"time"

	"github.com/caddyserver/caddy/v2"
	"go.uber.org/zap"

	"github.com/tlsmirror/clienthello"
)

const (
	CaddyAppID = "clienthello"

	DefaultReservoirValidFor = 10 * time.Second
)

func init() {
	caddy.RegisterModule(Reservoir{})
}

// Reservoir implements caddy.App. It holds the TLS and QUIC fingerprinters
// that the listener wrapper deposits ClientHellos into and the HTTP
// handler reads them back from.
type Reservoir struct {
	// ValidFor bounds how long a deposited ClientHello stays retrievable.
	ValidFor caddy.Duration `json:"valid_for,omitempty"`

	tlsFingerprinter  *clienthello.TLSFingerprinter
	quicFingerprinter *clienthello.QUICFingerprinter

	logger *zap.Logger
}

// CaddyModule returns the Caddy module information.
func (Reservoir) CaddyModule() caddy.ModuleInfo { // skipcq: GO-W1029
	return caddy.ModuleInfo{
		ID: CaddyAppID,
		New: func() caddy.Module {
			return &Reservoir{
				ValidFor: caddy.Duration(DefaultReservoirValidFor),
			}
		},
	}
}

// TLSFingerprinter returns the TLSFingerprinter instance.
func (r *Reservoir) TLSFingerprinter() *clienthello.TLSFingerprinter { // skipcq: GO-W1029
	return r.tlsFingerprinter
}

// QUICFingerprinter returns the QUICFingerprinter instance.
func (r *Reservoir) QUICFingerprinter() *clienthello.QUICFingerprinter { // skipcq: GO-W1029
	return r.quicFingerprinter
}

// Provision implements Provision() of caddy.Provisioner.
func (r *Reservoir) Provision(ctx caddy.Context) error { // skipcq: GO-W1029
	r.logger = ctx.Logger(r)
	r.tlsFingerprinter = clienthello.NewTLSFingerprinterWithTimeout(time.Duration(r.ValidFor))
	r.quicFingerprinter = clienthello.NewQUICFingerprinterWithTimeout(time.Duration(r.ValidFor))
	r.logger.Info("clienthello reservoir is provisioned")
	return nil
}

// Start implements Start() of caddy.App.
func (r *Reservoir) Start() error { // skipcq: GO-W1029
	if r.ValidFor <= 0 {
		return errors.New("valid_for must be a positive duration")
	}
	r.logger.Info("clienthello reservoir is started")
	return nil
}

// Stop implements Stop() of caddy.App.
func (r *Reservoir) Stop() error { // skipcq: GO-W1029
	r.tlsFingerprinter.Close()
	r.quicFingerprinter.Close()
	return nil
}

// Interface guards
var (
	_ caddy.App         = (*Reservoir)(nil)
	_ caddy.Provisioner = (*Reservoir)(nil)
)
