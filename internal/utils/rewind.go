package utils

import (
	"bytes"
	"errors"
	"io"
	"net"
)

// Interface guards
var (
	_ net.Conn  = (*rewindConn)(nil)
	_ io.Reader = (*rewindReader)(nil)
)

// RewindConn returns a net.Conn that replays buf before handing reads over
// to c. Used to give already-consumed ClientHello bytes back to whatever
// TLS stack accepts the connection next.
func RewindConn(c net.Conn, buf []byte) (net.Conn, error) {
	if c == nil {
		return nil, errors.New("cannot rewind nil connection")
	}
	if len(buf) == 0 {
		return c, nil
	}
	return &rewindConn{Conn: c, replay: bytes.NewReader(buf)}, nil
}

type rewindConn struct {
	net.Conn
	replay *bytes.Reader
}

func (c *rewindConn) Read(b []byte) (int, error) {
	if c.replay.Len() == 0 {
		return c.Conn.Read(b)
	}
	n, err := c.replay.Read(b)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, err
	}
	if n < len(b) && c.replay.Len() == 0 {
		n2, err := c.Conn.Read(b[n:])
		return n + n2, err
	}
	return n, nil
}

func (c *rewindConn) CloseWrite() error {
	if cw, ok := c.Conn.(interface{ CloseWrite() error }); ok {
		return cw.CloseWrite()
	}
	return errors.New("not supported")
}

// RewindReader is the io.Reader counterpart of RewindConn.
func RewindReader(r io.Reader, buf []byte) io.Reader {
	if len(buf) == 0 {
		return r
	}
	return &rewindReader{next: r, replay: bytes.NewReader(buf)}
}

type rewindReader struct {
	next   io.Reader
	replay *bytes.Reader
}

func (r *rewindReader) Read(b []byte) (int, error) {
	if r.replay.Len() == 0 {
		return r.next.Read(b)
	}
	n, err := r.replay.Read(b)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, err
	}
	if n < len(b) && r.replay.Len() == 0 {
		n2, err := r.next.Read(b[n:])
		return n + n2, err
	}
	return n, nil
}
