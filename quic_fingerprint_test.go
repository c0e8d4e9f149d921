package clienthello_test

import (
	"testing"
	"time"

	. "github.com/tlsmirror/clienthello"
)

func TestQUICFingerprinterHandleUDPPayload(t *testing.T) {
	qfp := NewQUICFingerprinter()

	if err := qfp.HandleUDPPayload("192.0.2.1:50000", quicIETFClientInitial()); err != nil {
		t.Fatal(err)
	}

	qch := qfp.Peek("192.0.2.1:50000")
	if qch == nil {
		t.Fatal("Peek = nil")
	}
	if qch.ServerName() != "example.ulfheim.net" {
		t.Errorf("ServerName = %q", qch.ServerName())
	}
	if qch.TransportParameters == nil {
		t.Error("TransportParameters = nil")
	}

	if qfp.Pop("192.0.2.1:50000") == nil {
		t.Fatal("Pop = nil")
	}
	if qfp.Peek("192.0.2.1:50000") != nil {
		t.Fatal("Peek after Pop returned a hello")
	}
}

func TestQUICFingerprinterRejectsGarbage(t *testing.T) {
	qfp := NewQUICFingerprinter()
	if err := qfp.HandleUDPPayload("a", []byte{0x00, 0x01, 0x02}); err == nil {
		t.Fatal("garbage datagram accepted")
	}
	if qfp.Peek("a") != nil {
		t.Fatal("garbage datagram stored a hello")
	}
}

func TestQUICFingerprinterExpiry(t *testing.T) {
	qfp := NewQUICFingerprinterWithTimeout(20 * time.Millisecond)

	if err := qfp.HandleUDPPayload("a", quicIETFClientInitial()); err != nil {
		t.Fatal(err)
	}
	if qfp.Peek("a") == nil {
		t.Fatal("entry missing right after store")
	}

	time.Sleep(100 * time.Millisecond)
	if qfp.Peek("a") != nil {
		t.Fatal("entry survived past its expiry")
	}
}

func TestQUICFingerprinterClosed(t *testing.T) {
	qfp := NewQUICFingerprinter()
	qfp.Close()
	if err := qfp.HandleUDPPayload("a", quicIETFClientInitial()); err == nil {
		t.Fatal("closed fingerprinter accepted a datagram")
	}
}
