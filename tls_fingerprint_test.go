package clienthello_test

import (
	"bytes"
	"io"
	"net"
	"testing"
	"time"

	. "github.com/tlsmirror/clienthello"
)

func TestTLSFingerprinterHandleMessage(t *testing.T) {
	tfp := NewTLSFingerprinter()

	if err := tfp.HandleMessage("192.0.2.1:1234", wrapRecord(fullRaw())); err != nil {
		t.Fatal(err)
	}

	ch := tfp.Peek("192.0.2.1:1234")
	if ch == nil {
		t.Fatal("Peek = nil")
	}
	if ch.ServerName() != "example.com" {
		t.Errorf("ServerName = %q", ch.ServerName())
	}

	if tfp.Pop("192.0.2.1:1234") == nil {
		t.Fatal("Pop = nil")
	}
	if tfp.Pop("192.0.2.1:1234") != nil {
		t.Fatal("second Pop returned a hello")
	}

	if err := tfp.HandleMessage("192.0.2.1:1234", []byte{0x17, 0x03, 0x03, 0x00, 0x00}); err == nil {
		t.Fatal("non-handshake record accepted")
	}
}

func TestTLSFingerprinterExpiry(t *testing.T) {
	tfp := NewTLSFingerprinterWithTimeout(20 * time.Millisecond)

	if err := tfp.HandleMessage("a", wrapRecord(fullRaw())); err != nil {
		t.Fatal(err)
	}
	if tfp.Peek("a") == nil {
		t.Fatal("entry missing right after store")
	}

	time.Sleep(100 * time.Millisecond)
	if tfp.Peek("a") != nil {
		t.Fatal("entry survived past its expiry")
	}
}

func TestTLSFingerprinterHandleTCPConn(t *testing.T) {
	record := wrapRecord(fullRaw())
	trailing := []byte("GET / HTTP/1.1\r\n")

	client, server := net.Pipe()
	go func() {
		client.Write(record)
		client.Write(trailing)
		client.Close()
	}()

	tfp := NewTLSFingerprinter()
	rewound, err := tfp.HandleTCPConn(server)
	if err != nil {
		t.Fatal(err)
	}

	if ch := tfp.Peek(server.RemoteAddr().String()); ch == nil || ch.ServerName() != "example.com" {
		t.Fatalf("Peek = %+v", ch)
	}

	// the consumed record must replay first, then reads fall through to
	// the live connection
	replayed := make([]byte, len(record))
	if _, err := io.ReadFull(rewound, replayed); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(replayed, record) {
		t.Fatal("rewound connection did not replay the record")
	}
	rest, err := io.ReadAll(rewound)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(rest, trailing) {
		t.Fatalf("trailing bytes = %q", rest)
	}
}

func TestTLSFingerprinterClosed(t *testing.T) {
	tfp := NewTLSFingerprinter()
	tfp.Close()
	if err := tfp.HandleMessage("a", wrapRecord(fullRaw())); err == nil {
		t.Fatal("closed fingerprinter accepted a message")
	}
}
