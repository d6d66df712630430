package service

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	commonlog "github.com/xdie/clasificados/server/common/log"
)

type feedClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *feedClient) writeJSON(payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(payload)
}

// FeedService fans created listings out to websocket subscribers. Single
// process only; there is no cross-node relay.
type FeedService struct {
	mu      sync.RWMutex
	clients map[*feedClient]struct{}
}

func NewFeedService() *FeedService {
	return &FeedService{clients: map[*feedClient]struct{}{}}
}

var feedUpgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// HandleWS upgrades the request and keeps the connection registered until
// the peer goes away. Inbound messages are drained and ignored.
func (s *FeedService) HandleWS(c *gin.Context) {
	conn, err := feedUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		commonlog.Warnf("upgrade feed connection: %v", err)
		return
	}
	client := &feedClient{conn: conn}
	s.register(client)
	defer s.unregister(client)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Broadcast pushes the payload to every connected subscriber, dropping the
// ones that fail to write.
func (s *FeedService) Broadcast(payload any) {
	s.mu.RLock()
	clients := make([]*feedClient, 0, len(s.clients))
	for client := range s.clients {
		clients = append(clients, client)
	}
	s.mu.RUnlock()

	for _, client := range clients {
		if err := client.writeJSON(payload); err != nil {
			s.unregister(client)
		}
	}
}

// Subscribers reports the current connection count.
func (s *FeedService) Subscribers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

func (s *FeedService) register(client *feedClient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[client] = struct{}{}
}

func (s *FeedService) unregister(client *feedClient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[client]; ok {
		delete(s.clients, client)
		_ = client.conn.Close()
	}
}
