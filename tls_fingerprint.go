package clienthello

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tlsmirror/clienthello/internal/utils"
)

const DefaultTLSFingerprintExpiry = 5 * time.Second

// TLSFingerprinter collects decoded ClientHellos from TCP connections,
// keyed by remote address. Entries expire on their own schedule so the
// store does not grow with abandoned handshakes.
type TLSFingerprinter struct {
	hellos *sync.Map // remote address -> *ClientHello

	timeout time.Duration
	closed  atomic.Bool
}

// NewTLSFingerprinter creates a TLSFingerprinter with the default entry
// expiry.
func NewTLSFingerprinter() *TLSFingerprinter {
	return &TLSFingerprinter{
		hellos: new(sync.Map),
	}
}

// NewTLSFingerprinterWithTimeout creates a TLSFingerprinter whose entries
// expire after timeout.
func NewTLSFingerprinterWithTimeout(timeout time.Duration) *TLSFingerprinter {
	return &TLSFingerprinter{
		hellos:  new(sync.Map),
		timeout: timeout,
	}
}

// SetTimeout sets the expiry for entries stored after the call.
func (tfp *TLSFingerprinter) SetTimeout(timeout time.Duration) {
	tfp.timeout = timeout
}

// HandleMessage decodes a complete TLS record received from the given
// address and stores the result.
func (tfp *TLSFingerprinter) HandleMessage(from string, p []byte) error {
	if tfp.closed.Load() {
		return errors.New("TLSFingerprinter closed")
	}

	ch, err := ParseRecord(p)
	if err != nil {
		return err
	}

	tfp.store(from, ch)
	return nil
}

// HandleTCPConn reads one TLS record from the connection, stores the
// decoded ClientHello, and returns a connection with the consumed bytes
// rewound so a real TLS stack can still complete the handshake.
func (tfp *TLSFingerprinter) HandleTCPConn(conn net.Conn) (rewound net.Conn, err error) {
	if tfp.closed.Load() {
		return nil, errors.New("TLSFingerprinter closed")
	}

	raw, ch, err := ReadClientHello(conn)
	if err != nil {
		return nil, fmt.Errorf("failed to read ClientHello from connection: %w", err)
	}

	tfp.store(conn.RemoteAddr().String(), ch)
	return utils.RewindConn(conn, raw)
}

func (tfp *TLSFingerprinter) store(key string, ch *ClientHello) {
	tfp.hellos.Store(key, ch)
	expiry := tfp.timeout
	if expiry == 0 {
		expiry = DefaultTLSFingerprintExpiry
	}
	time.AfterFunc(expiry, func() {
		tfp.hellos.CompareAndDelete(key, ch)
	})
}

// Peek looks up the ClientHello stored for a remote address.
func (tfp *TLSFingerprinter) Peek(from string) *ClientHello {
	v, ok := tfp.hellos.Load(from)
	if !ok {
		return nil
	}
	ch, _ := v.(*ClientHello)
	return ch
}

// Pop looks up the ClientHello stored for a remote address and removes it.
func (tfp *TLSFingerprinter) Pop(from string) *ClientHello {
	v, ok := tfp.hellos.LoadAndDelete(from)
	if !ok {
		return nil
	}
	ch, _ := v.(*ClientHello)
	return ch
}

// Close stops the fingerprinter from accepting new entries.
func (tfp *TLSFingerprinter) Close() {
	tfp.closed.Store(true)
}
