package websocket

import (
	"encoding/json"
	"sync"

	"platereader/internal/logger"
	"platereader/internal/models"
	"platereader/internal/services/pipeline"

	"github.com/gorilla/websocket"
)

// Event types sent to viewers.
const (
	EventResult = "result"
	EventRun    = "run"
	EventStage  = "stage"
)

// Event is the JSON envelope of every viewer message.
type Event struct {
	Type   string                `json:"type"`
	Result *models.PlateResult   `json:"result,omitempty"`
	Run    *models.Run           `json:"run,omitempty"`
	Stage  *pipeline.StageReport `json:"stage,omitempty"`
}

// HubService fans plate results and run updates out to connected viewers.
type HubService struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}
	mutex      sync.RWMutex
	logger     *logger.Logger
}

// NewHubService creates a hub. Messages are buffered up to bufferSize; beyond
// that they are dropped so a slow viewer never stalls the pipeline.
func NewHubService(bufferSize int, logger *logger.Logger) *HubService {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &HubService{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, bufferSize),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run serves registrations and broadcasts until Stop is called.
func (h *HubService) Run() {
	for {
		select {
		case <-h.done:
			h.mutex.Lock()
			for client := range h.clients {
				client.Close()
				delete(h.clients, client)
			}
			h.mutex.Unlock()
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Viewer connected. Total: %d", count)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			count := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Viewer disconnected. Total: %d", count)

		case message := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
					h.logger.Error("Error sending message: %v", err)
					delete(h.clients, client)
					client.Close()
				}
			}
			h.mutex.Unlock()
		}
	}
}

// Stop ends Run and closes every viewer connection.
func (h *HubService) Stop() {
	close(h.done)
}

func (h *HubService) Register(client *websocket.Conn) {
	select {
	case h.register <- client:
	case <-h.done:
		client.Close()
	}
}

func (h *HubService) Unregister(client *websocket.Conn) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast queues message for every viewer. It reports false when the
// buffer is full and the message was dropped.
func (h *HubService) Broadcast(message []byte) bool {
	select {
	case h.broadcast <- message:
		return true
	default:
		h.logger.Warning("Viewer queue full, dropping message")
		return false
	}
}

// Publish encodes and broadcasts an event.
func (h *HubService) Publish(event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	h.Broadcast(data)
	return nil
}

// Record implements pipeline.Recorder.
func (h *HubService) Record(result *models.PlateResult) error {
	return h.Publish(Event{Type: EventResult, Result: result})
}

func (h *HubService) GetClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}
