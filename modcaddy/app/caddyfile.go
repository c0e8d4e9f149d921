package app

import (
	"github.com/caddyserver/caddy/v2"
	"github.com/caddyserver/caddy/v2/caddyconfig"
	"github.com/caddyserver/caddy/v2/caddyconfig/caddyfile"
	"github.com/caddyserver/caddy/v2/caddyconfig/httpcaddyfile"
)

func init() {
	httpcaddyfile.RegisterGlobalOption(CaddyAppID, parseCaddyfile)
}

/*
Caddyfile syntax:

	clienthello {
		validfor 10s
	}
*/
func parseCaddyfile(d *caddyfile.Dispenser, _ interface{}) (interface{}, error) {
	app := &Reservoir{
		ValidFor: caddy.Duration(DefaultReservoirValidFor),
	}

	for d.Next() {
		for d.NextBlock(0) {
			switch d.Val() { // skipcq: CRT-A0014
			case "validfor":
				if app.ValidFor != caddy.Duration(DefaultReservoirValidFor) {
					return nil, d.Err("only one validfor is allowed")
				}
				args := d.RemainingArgs()
				if len(args) != 1 {
					return nil, d.ArgErr()
				}
				duration, err := caddy.ParseDuration(args[0])
				if err != nil {
					return nil, d.Errf("invalid duration: %v", err)
				}
				app.ValidFor = caddy.Duration(duration)
			}
		}
	}

	return httpcaddyfile.App{
		Name:  CaddyAppID,
		Value: caddyconfig.JSON(app, nil),
	}, nil
}
