package tcp

import (
	"encoding/gob"
	"net"
	"time"

	"github.com/juju/errors"

	"lamportd/internal/mutex"
)

// connCodec wraps a TCP connection carrying a single gob-encoded message.
type connCodec struct {
	conn    net.Conn
	encoder *gob.Encoder
	decoder *gob.Decoder
}

func newConnCodec(conn net.Conn) connCodec {
	return connCodec{
		conn:    conn,
		encoder: gob.NewEncoder(conn),
		decoder: gob.NewDecoder(conn),
	}
}

// Receive reads the message of the connection, waiting until deadline at most.
func (c connCodec) Receive(deadline time.Time) (mutex.Message, error) {
	if err := c.conn.SetReadDeadline(deadline); err != nil {
		return mutex.Message{}, errors.Trace(err)
	}
	var msg mutex.Message
	if err := c.decoder.Decode(&msg); err != nil {
		return mutex.Message{}, errors.Annotatef(err, "decoding message from %s", c.conn.RemoteAddr())
	}
	return msg, nil
}

// Send writes msg to the connection, waiting until deadline at most.
func (c connCodec) Send(msg mutex.Message, deadline time.Time) error {
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return errors.Trace(err)
	}
	return errors.Annotatef(c.encoder.Encode(msg), "encoding %v", msg)
}

func (c connCodec) Close() {
	_ = c.conn.Close()
}
