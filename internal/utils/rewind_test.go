package utils_test

import (
	"bytes"
	"io"
	"net"
	"testing"

	. "github.com/tlsmirror/clienthello/internal/utils"
)

func TestRewindReader(t *testing.T) {
	replay := []byte("hello ")
	rest := []byte("world")

	r := RewindReader(bytes.NewReader(rest), replay)
	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, append(append([]byte{}, replay...), rest...)) {
		t.Errorf("read %q", out)
	}
}

func TestRewindReaderEmptyBuf(t *testing.T) {
	inner := bytes.NewReader([]byte("x"))
	if r := RewindReader(inner, nil); r != io.Reader(inner) {
		t.Error("empty rewind should return the reader unchanged")
	}
}

func TestRewindConn(t *testing.T) {
	replay := []byte("replayed")
	rest := []byte("live")

	client, server := net.Pipe()
	go func() {
		client.Write(rest)
		client.Close()
	}()

	rc, err := RewindConn(server, replay)
	if err != nil {
		t.Fatal(err)
	}
	out, err := io.ReadAll(rc)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, append(append([]byte{}, replay...), rest...)) {
		t.Errorf("read %q", out)
	}
}

func TestRewindConnNil(t *testing.T) {
	if _, err := RewindConn(nil, []byte("x")); err == nil {
		t.Error("nil connection accepted")
	}
}
