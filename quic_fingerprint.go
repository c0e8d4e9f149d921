package clienthello

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

const DefaultQUICFingerprintExpiry = 10 * time.Second

// QUICFingerprinter collects ClientHellos reassembled from QUIC client
// Initial packets, keyed by source address. A browser may spread the
// CRYPTO stream over several datagrams, so each source keeps a
// reconstructor until its handshake message completes or expires.
type QUICFingerprinter struct {
	pending *sync.Map // source address -> *ClientHelloReconstructor
	hellos  *sync.Map // source address -> *QUICClientHello

	timeout time.Duration
	closed  atomic.Bool
}

// NewQUICFingerprinter creates a QUICFingerprinter with the default entry
// expiry.
func NewQUICFingerprinter() *QUICFingerprinter {
	return &QUICFingerprinter{
		pending: new(sync.Map),
		hellos:  new(sync.Map),
	}
}

// NewQUICFingerprinterWithTimeout creates a QUICFingerprinter whose
// entries expire after timeout.
func NewQUICFingerprinterWithTimeout(timeout time.Duration) *QUICFingerprinter {
	qfp := NewQUICFingerprinter()
	qfp.timeout = timeout
	return qfp
}

// SetTimeout sets the expiry for entries stored after the call.
func (qfp *QUICFingerprinter) SetTimeout(timeout time.Duration) {
	qfp.timeout = timeout
}

// HandleUDPPayload decodes one UDP datagram as a QUIC client Initial
// packet and feeds its CRYPTO frames into the per-source reassembly. When
// the handshake message completes, the decoded hello becomes available
// under the source address. Returns ErrNeedMoreFrames while incomplete.
func (qfp *QUICFingerprinter) HandleUDPPayload(from string, p []byte) error {
	if qfp.closed.Load() {
		return errors.New("QUICFingerprinter closed")
	}

	ci, err := ParseQUICClientInitial(p)
	if err != nil {
		return err
	}

	v, loaded := qfp.pending.LoadOrStore(from, NewClientHelloReconstructor())
	rec, _ := v.(*ClientHelloReconstructor)
	if !loaded {
		expiry := qfp.timeout
		if expiry == 0 {
			expiry = DefaultQUICFingerprintExpiry
		}
		time.AfterFunc(expiry, func() {
			qfp.pending.CompareAndDelete(from, rec)
		})
	}

	if err := rec.FromFrames(ci.frames); err != nil {
		return err
	}

	qch, err := rec.Reconstruct()
	if err != nil {
		return err
	}
	qfp.pending.CompareAndDelete(from, rec)
	qfp.store(from, qch)
	return nil
}

func (qfp *QUICFingerprinter) store(key string, qch *QUICClientHello) {
	qfp.hellos.Store(key, qch)
	expiry := qfp.timeout
	if expiry == 0 {
		expiry = DefaultQUICFingerprintExpiry
	}
	time.AfterFunc(expiry, func() {
		qfp.hellos.CompareAndDelete(key, qch)
	})
}

// Peek looks up the hello stored for a source address.
func (qfp *QUICFingerprinter) Peek(from string) *QUICClientHello {
	v, ok := qfp.hellos.Load(from)
	if !ok {
		return nil
	}
	qch, _ := v.(*QUICClientHello)
	return qch
}

// Pop looks up the hello stored for a source address and removes it.
func (qfp *QUICFingerprinter) Pop(from string) *QUICClientHello {
	v, ok := qfp.hellos.LoadAndDelete(from)
	if !ok {
		return nil
	}
	qch, _ := v.(*QUICClientHello)
	return qch
}

// Close stops the fingerprinter from accepting new packets.
func (qfp *QUICFingerprinter) Close() {
	qfp.closed.Store(true)
}
