package progress

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

func (c *client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		unregisterClient(c)
		c.conn.Close()
		ticker.Stop()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(40 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Printf("[progress] ws write error: %v", err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(40 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("[progress] ws ping error: %v", err)
				return
			}
		}
	}
}

// NewClient registers conn to receive every broadcast operation
// update from here on, starting its own write pump.
func NewClient(conn *websocket.Conn) {
	c := &client{conn: conn, send: make(chan []byte, 32)}
	registerClient(c)
	go c.writePump()
}

var broadcastCh = make(chan envelope, 64)
var clientsLock sync.Mutex
var clients = make(map[*client]bool)

type envelope struct {
	OperationID string `json:"operationId"`
	View
}

func init() {
	go func() {
		for e := range broadcastCh {
			data, err := json.Marshal(e)
			if err != nil {
				continue
			}
			clientsLock.Lock()
			for c := range clients {
				select {
				case c.send <- data:
				default:
				}
			}
			clientsLock.Unlock()
		}
	}()
}

func registerClient(c *client) {
	clientsLock.Lock()
	clients[c] = true
	clientsLock.Unlock()
}

func unregisterClient(c *client) {
	clientsLock.Lock()
	delete(clients, c)
	clientsLock.Unlock()
}

func broadcastView(id string, v View) {
	select {
	case broadcastCh <- envelope{OperationID: id, View: v}:
	default:
		// a slow consumer does not get to apply backpressure to
		// operation progress; drop rather than block.
	}
}
