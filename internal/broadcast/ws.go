package broadcast

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	pongWait   = pingPeriod + 10*time.Second
	readLimit  = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Dashboards are served from other origins.
	CheckOrigin: func(*http.Request) bool { return true },
}

// ServeHTTP upgrades the request and streams broadcasts until the peer
// goes away or stops answering pings. Inbound frames are read and
// discarded.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	o := h.subscribe()
	done := make(chan struct{})

	go func() {
		defer close(done)
		h.readPump(conn)
	}()

	h.writePump(conn, o, done)

	h.unsubscribe(o)
	_ = conn.Close()
	<-done
}

func (h *Hub) readPump(conn *websocket.Conn) {
	conn.SetReadLimit(readLimit)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			return
		}
	}
}

func (h *Hub) writePump(conn *websocket.Conn, o *observer, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case frame := <-o.outbox:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))

			err := conn.WriteMessage(websocket.TextMessage, frame)
			if err != nil {
				h.log.Debug("observer write failed", "observer", o.id, "error", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))

			err := conn.WriteMessage(websocket.PingMessage, nil)
			if err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
