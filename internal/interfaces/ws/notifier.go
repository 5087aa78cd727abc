package ws_interface

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"github.com/vulpemventures/keyring/internal/core/application"
)

var (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	clientBufferSize = 256

	upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
)

// EventMessage is the json message sent to clients for every change of a
// registry. Clients receive the current entries as added events right after
// connecting.
type EventMessage struct {
	EventType string                 `json:"eventType"`
	Subject   string                 `json:"subject"`
	Address   string                 `json:"address"`
	PublicKey string                 `json:"publicKey"`
	KeyType   string                 `json:"keyType,omitempty"`
	IsLocked  bool                   `json:"isLocked"`
	Meta      map[string]interface{} `json:"meta"`
}

func newEventMessage(event application.SubjectEvent) EventMessage {
	return EventMessage{
		EventType: event.EventType.String(),
		Subject:   event.Subject,
		Address:   event.Entry.Address,
		PublicKey: hex.EncodeToString(event.Entry.PublicKey),
		KeyType:   event.Entry.KeyType,
		IsLocked:  event.Entry.IsLocked,
		Meta:      event.Entry.Meta,
	}
}

type client struct {
	id         string
	conn       *websocket.Conn
	chMessages chan []byte
	closeOnce  *sync.Once
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.chMessages)
		//nolint:errcheck
		c.conn.Close()
	})
}

// Notifier streams the events of an AddressSubject to every connected
// websocket client.
type Notifier struct {
	subject     *application.AddressSubject
	clients     map[string]*client
	lock        *sync.RWMutex
	unsubscribe func()

	log  func(format string, a ...interface{})
	warn func(err error, format string, a ...interface{})
}

func NewNotifier(subject *application.AddressSubject) *Notifier {
	prefix := fmt.Sprintf("%s notifier", subject.Name())
	logFn := func(format string, a ...interface{}) {
		format = fmt.Sprintf("%s: %s", prefix, format)
		log.Debugf(format, a...)
	}
	warnFn := func(err error, format string, a ...interface{}) {
		format = fmt.Sprintf("%s: %s", prefix, format)
		log.WithError(err).Warnf(format, a...)
	}

	n := &Notifier{
		subject: subject,
		clients: make(map[string]*client),
		lock:    &sync.RWMutex{},
		log:     logFn,
		warn:    warnFn,
	}
	n.unsubscribe = subject.Subscribe(n.broadcast)
	return n
}

// ServeHTTP upgrades the connection to a websocket, sends the current
// entries of the subject and then forwards every new event.
func (n *Notifier) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		n.warn(err, "failed to upgrade connection from %s", r.RemoteAddr)
		return
	}

	c := &client{
		id:         uuid.New().String(),
		conn:       conn,
		chMessages: make(chan []byte, clientBufferSize),
		closeOnce:  &sync.Once{},
	}
	n.addClient(c)
	n.log("client %s connected from %s", c.id, r.RemoteAddr)

	for _, entry := range n.subject.All() {
		msg, _ := json.Marshal(newEventMessage(application.SubjectEvent{
			EventType: application.SubjectEntryAdded,
			Subject:   n.subject.Name(),
			Entry:     entry,
		}))
		if err := n.write(c, msg); err != nil {
			n.removeClient(c, err)
			return
		}
	}

	go n.writePump(c)
	go n.readPump(c)
}

// NumOfClients returns the number of connected clients.
func (n *Notifier) NumOfClients() int {
	n.lock.RLock()
	defer n.lock.RUnlock()

	return len(n.clients)
}

// Close unsubscribes from the subject and drops every client.
func (n *Notifier) Close() {
	n.unsubscribe()

	n.lock.Lock()
	defer n.lock.Unlock()

	for id, c := range n.clients {
		c.close()
		delete(n.clients, id)
	}
}

func (n *Notifier) broadcast(event application.SubjectEvent) {
	msg, err := json.Marshal(newEventMessage(event))
	if err != nil {
		n.warn(err, "failed to serialize event")
		return
	}

	n.lock.RLock()
	defer n.lock.RUnlock()

	for _, c := range n.clients {
		// slow clients miss events rather than blocking the keyring.
		select {
		case c.chMessages <- msg:
		default:
			n.log("dropped event for slow client %s", c.id)
		}
	}
}

func (n *Notifier) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.chMessages:
			if !ok {
				return
			}
			if err := n.write(c, msg); err != nil {
				n.removeClient(c, err)
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(
				websocket.PingMessage, nil, time.Now().Add(writeWait),
			); err != nil {
				n.removeClient(c, err)
				return
			}
		}
	}
}

// readPump only detects when the client goes away, incoming messages are
// discarded.
func (n *Notifier) readPump(c *client) {
	//nolint:errcheck
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			n.removeClient(c, err)
			return
		}
	}
}

func (n *Notifier) write(c *client, msg []byte) error {
	//nolint:errcheck
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, msg)
}

func (n *Notifier) addClient(c *client) {
	n.lock.Lock()
	defer n.lock.Unlock()

	n.clients[c.id] = c
}

func (n *Notifier) removeClient(c *client, err error) {
	n.lock.Lock()
	defer n.lock.Unlock()

	if _, ok := n.clients[c.id]; !ok {
		return
	}
	delete(n.clients, c.id)
	c.close()

	if websocket.IsUnexpectedCloseError(
		err, websocket.CloseNormalClosure, websocket.CloseGoingAway,
	) {
		n.warn(err, "client %s disconnected", c.id)
		return
	}
	n.log("client %s disconnected", c.id)
}
