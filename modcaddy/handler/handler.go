package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/caddyserver/caddy/v2"
	"github.com/caddyserver/caddy/v2/caddyconfig/httpcaddyfile"
	"github.com/caddyserver/caddy/v2/modules/caddyhttp"
	"go.uber.org/zap"

	"github.com/tlsmirror/clienthello/modcaddy/app"
)

func init() {
	caddy.RegisterModule(Handler{})
	httpcaddyfile.RegisterHandlerDirective("clienthello", func(h httpcaddyfile.Helper) (caddyhttp.MiddlewareHandler, error) {
		return &Handler{}, nil
	})
}

// Handler serves the ClientHello recorded for the requesting connection
// as JSON. TLS hellos are matched first, then QUIC.
type Handler struct {
	logger    *zap.Logger
	reservoir *app.Reservoir
}

// CaddyModule returns the Caddy module information.
func (Handler) CaddyModule() caddy.ModuleInfo {
	return caddy.ModuleInfo{
		ID:  "http.handlers.clienthello",
		New: func() caddy.Module { return new(Handler) },
	}
}

// Provision implements caddy.Provisioner.
func (h *Handler) Provision(ctx caddy.Context) error {
	h.logger = ctx.Logger(h)
	if !ctx.AppIsConfigured(app.CaddyAppID) {
		return errors.New("clienthello handler: global reservoir is not configured")
	}
	a, err := ctx.App(app.CaddyAppID)
	if err != nil {
		return err
	}
	h.reservoir = a.(*app.Reservoir)
	h.logger.Info("clienthello handler provisioned")
	return nil
}

func (h *Handler) ServeHTTP(wr http.ResponseWriter, req *http.Request, next caddyhttp.Handler) error {
	if ch := h.reservoir.TLSFingerprinter().Pop(req.RemoteAddr); ch != nil {
		h.logger.Debug("serving TLS ClientHello",
			zap.String("from", req.RemoteAddr),
			zap.String("id", ch.FingerprintID(false)),
			zap.String("norm_id", ch.FingerprintID(true)))
		return h.serveJSON(wr, req, next, ch)
	}

	if qch := h.reservoir.QUICFingerprinter().Pop(req.RemoteAddr); qch != nil {
		h.logger.Debug("serving QUIC ClientHello",
			zap.String("from", req.RemoteAddr),
			zap.String("id", qch.FingerprintID(false)),
			zap.String("norm_id", qch.FingerprintID(true)))
		return h.serveJSON(wr, req, next, qch)
	}

	h.logger.Debug("no ClientHello recorded for " + req.RemoteAddr)
	return next.ServeHTTP(wr, req)
}

func (h *Handler) serveJSON(wr http.ResponseWriter, req *http.Request, next caddyhttp.Handler, v interface{}) error {
	var b []byte
	var err error
	if req.URL.Query().Get("beautify") == "true" {
		b, err = json.MarshalIndent(v, "", "  ")
	} else {
		b, err = json.Marshal(v)
	}
	if err != nil {
		h.logger.Error("failed to marshal ClientHello", zap.Error(err))
		return next.ServeHTTP(wr, req)
	}

	wr.Header().Set("Content-Type", "application/json")
	wr.Header().Set("Connection", "close")
	if _, err = wr.Write(b); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
		return next.ServeHTTP(wr, req)
	}
	return nil
}

// Interface guards
var (
	_ caddy.Provisioner           = (*Handler)(nil)
	_ caddyhttp.MiddlewareHandler = (*Handler)(nil)
)
