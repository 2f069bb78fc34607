package realtime

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pribylovaa/go-social-client/pkg/redact"
)

// Conn одно открытое соединение. Read и Write вызываются из разных горутин,
// Close может вызываться конкурентно с ними и повторно.
type Conn interface {
	Read() ([]byte, error)
	Write(ctx context.Context, data []byte) error
	Close() error
}

// Dialer открывает соединение с realtime-эндпойнтом.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// defaultWriteTimeout используется, если у контекста записи нет дедлайна.
const defaultWriteTimeout = 10 * time.Second

// WSDialer Dialer поверх gorilla/websocket.
type WSDialer struct {
	HandshakeTimeout time.Duration
	Header           http.Header
}

// Dial выполняет websocket-рукопожатие.
func (d WSDialer) Dial(ctx context.Context, url string) (Conn, error) {
	const op = "realtime/conn/Dial"

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: d.HandshakeTimeout,
	}

	ws, resp, err := dialer.DialContext(ctx, url, d.Header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("%s: %s: handshake status %d: %w", op, redact.URL(url), resp.StatusCode, err)
		}
		return nil, fmt.Errorf("%s: %s: %w", op, redact.URL(url), err)
	}

	return &wsConn{ws: ws}, nil
}

type wsConn struct {
	ws *websocket.Conn
}

// Read возвращает следующее текстовое или бинарное сообщение.
func (c *wsConn) Read() ([]byte, error) {
	for {
		mt, data, err := c.ws.ReadMessage()
		if err != nil {
			return nil, err
		}
		if mt == websocket.TextMessage || mt == websocket.BinaryMessage {
			return data, nil
		}
	}
}

func (c *wsConn) Write(ctx context.Context, data []byte) error {
	deadline := time.Now().Add(defaultWriteTimeout)
	if dl, ok := ctx.Deadline(); ok {
		deadline = dl
	}

	if err := c.ws.SetWriteDeadline(deadline); err != nil {
		return err
	}

	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// Close отправляет close-фрейм (best effort) и закрывает сокет.
func (c *wsConn) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))

	return c.ws.Close()
}
