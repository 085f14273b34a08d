package services

import (
	"encoding/json"
	"log"
	"strings"
	"sync"
	"time"

	"tabletop/games"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type Hub struct {
	clients       map[*Client]bool
	broadcast     chan []byte
	register      chan *Client
	unregister    chan *Client
	mutex         sync.RWMutex
	gameService   *GameService
	botService    *BotService
	socialService *SocialService
}

type Client struct {
	hub        *Hub
	id         string
	socket     *websocket.Conn
	send       chan []byte
	gamePin    string
	playerID   string
	playerName string
}

type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// rawMessage is the inbound shape; payloads are decoded per message type.
type rawMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func NewHub(gameService *GameService, botService *BotService, socialService *SocialService) *Hub {
	return &Hub{
		clients:       make(map[*Client]bool),
		broadcast:     make(chan []byte),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		gameService:   gameService,
		botService:    botService,
		socialService: socialService,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()
			log.Printf("Client registered: %s for game %s (player %s: %s) - Total clients: %d", client.id, client.gamePin, client.playerID, client.playerName, len(h.clients))

			// A registering client is a (re)connect: flip the connectivity flag
			// through the authority and hand the client a full state sync.
			if h.gameService != nil {
				if _, _, err := h.gameService.HandleConnection(client.gamePin, client.playerID, true, h); err != nil {
					log.Printf("Error handling connect for player %s in game %s: %v", client.playerID, client.gamePin, err)
				}
				h.SendGameStateSync(client)
			}

		case client := <-h.unregister:
			h.mutex.Lock()
			_, ok := h.clients[client]
			if ok {
				delete(h.clients, client)
				close(client.send)
				log.Printf("Client unregistered: %s for game %s (player %s: %s) - Total clients: %d", client.id, client.gamePin, client.playerID, client.playerName, len(h.clients))
			}
			h.mutex.Unlock()

			if ok && h.gameService != nil {
				_, skipped, err := h.gameService.HandleConnection(client.gamePin, client.playerID, false, h)
				if err != nil {
					log.Printf("Error handling disconnect for player %s in game %s: %v", client.playerID, client.gamePin, err)
				} else if len(skipped) > 0 {
					h.RunBotTurnIfDue(client.gamePin)
				}
			}

		case message := <-h.broadcast:
			h.mutex.RLock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mutex.RUnlock()
		}
	}
}

func (h *Hub) BroadcastToGame(gamePin string, messageType string, payload interface{}) {
	message := Message{
		Type:    messageType,
		Payload: payload,
	}

	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling message: %v", err)
		return
	}

	h.mutex.RLock()
	for client := range h.clients {
		if strings.EqualFold(client.gamePin, gamePin) {
			select {
			case client.send <- data:
			default:
				close(client.send)
				delete(h.clients, client)
			}
		}
	}
	h.mutex.RUnlock()
}

// SendToPlayer delivers a message to a single player's connections in a game.
func (h *Hub) SendToPlayer(gamePin, playerID, messageType string, payload interface{}) {
	message := Message{
		Type:    messageType,
		Payload: payload,
	}

	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling message: %v", err)
		return
	}

	h.mutex.RLock()
	for client := range h.clients {
		if strings.EqualFold(client.gamePin, gamePin) && client.playerID == playerID {
			select {
			case client.send <- data:
			default:
				close(client.send)
				delete(h.clients, client)
			}
		}
	}
	h.mutex.RUnlock()
}

func (h *Hub) SendGameStateSync(client *Client) {
	if h.gameService == nil {
		return
	}
	state, err := h.gameService.GetGameState(client.gamePin)
	if err != nil {
		log.Printf("Error getting game state for client %s: %v", client.id, err)
		return
	}
	payload := h.gameService.Envelope(map[string]interface{}{"state": state})
	message := Message{Type: "game_state_sync", Payload: payload}

	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling game state sync message: %v", err)
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()
	select {
	case client.send <- data:
	default:
		close(client.send)
		delete(h.clients, client)
	}
}

func (h *Hub) IsPlayerConnected(gamePin, playerID string) bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	for client := range h.clients {
		if strings.EqualFold(client.gamePin, gamePin) && client.playerID == playerID {
			return true
		}
	}
	return false
}

func (h *Hub) RegisterClient(conn *websocket.Conn, gamePin, playerID, playerName string) *Client {
	client := &Client{
		hub:        h,
		id:         uuid.NewString(),
		socket:     conn,
		send:       make(chan []byte, 256),
		gamePin:    strings.ToLower(gamePin),
		playerID:   playerID,
		playerName: playerName,
	}

	h.register <- client

	go client.writePump()
	go client.readPump()

	return client
}

func (h *Hub) UnregisterClient(client *Client) {
	h.unregister <- client
}

// RunBotTurnIfDue kicks off an automated turn when the cursor landed on a bot.
func (h *Hub) RunBotTurnIfDue(gamePin string) {
	if h.gameService == nil || h.botService == nil {
		return
	}
	state, err := h.gameService.GetGameState(gamePin)
	if err != nil || state.Status != games.StatusPlaying {
		return
	}
	current := state.CurrentPlayer()
	if current == nil || !h.gameService.IsBot(gamePin, current.ID) {
		return
	}
	go func(botID string) {
		if err := h.botService.PlayTurn(gamePin, botID, h); err != nil {
			log.Printf("Bot turn failed for %s in game %s: %v", botID, gamePin, err)
			return
		}
		// The next seat may also be a bot; chain until a human (or game over).
		h.RunBotTurnIfDue(gamePin)
	}(current.ID)
}

func (c *Client) readPump() {
	defer func() {
		c.hub.UnregisterClient(c)
		c.socket.Close()
	}()

	for {
		_, message, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			break
		}

		var msg rawMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Printf("Error unmarshaling message: %v", err)
			continue
		}

		c.handleMessage(msg)
	}
}

func (c *Client) writePump() {
	defer func() {
		c.socket.Close()
	}()

	for message := range c.send {
		w, err := c.socket.NextWriter(websocket.TextMessage)
		if err != nil {
			return
		}

		w.Write(message)

		if err := w.Close(); err != nil {
			return
		}
	}
	c.socket.WriteMessage(websocket.CloseMessage, []byte{})
}

func (c *Client) handleMessage(msg rawMessage) {
	switch msg.Type {
	case "ping":
		response := Message{Type: "pong", Payload: "pong"}
		data, _ := json.Marshal(response)
		c.send <- data

	case "submit_move":
		var payload struct {
			Type string                 `json:"type"`
			Data map[string]interface{} `json:"data"`
		}
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			log.Printf("Error unmarshaling move payload from player %s: %v", c.playerID, err)
			return
		}
		move := games.Move{
			PlayerID:  c.playerID,
			Type:      payload.Type,
			Data:      payload.Data,
			Timestamp: time.Now(),
		}
		_, ok, err := c.hub.gameService.SubmitMove(c.gamePin, move, c.hub)
		if err != nil {
			log.Printf("Error submitting move for player %s in game %s: %v", c.playerID, c.gamePin, err)
			c.hub.SendToPlayer(c.gamePin, c.playerID, "move_failed", map[string]interface{}{"reason": "internal error"})
			return
		}
		if !ok {
			// Illegal moves are silent rejections; the client reconciles from
			// its last authoritative snapshot.
			c.hub.SendToPlayer(c.gamePin, c.playerID, "move_rejected", map[string]interface{}{"move_type": payload.Type})
			return
		}
		c.hub.RunBotTurnIfDue(c.gamePin)

	case "auto_play":
		// Turn-timer auto-action from the client's own timer. It goes through
		// the exact same move path and revalidation as any other submission.
		if err := c.hub.gameService.AutoPlayTurn(c.gamePin, c.playerID, c.hub); err != nil {
			log.Printf("Auto-play failed for player %s in game %s: %v", c.playerID, c.gamePin, err)
			c.hub.SendToPlayer(c.gamePin, c.playerID, "auto_play_failed", map[string]interface{}{"reason": err.Error()})
			return
		}
		c.hub.RunBotTurnIfDue(c.gamePin)

	case "chat":
		var payload struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(msg.Payload, &payload); err != nil || payload.Text == "" {
			return
		}
		if c.hub.socialService != nil {
			if err := c.hub.socialService.SaveChatMessage(c.gamePin, c.playerID, c.playerName, payload.Text); err != nil {
				log.Printf("Error saving chat message in game %s: %v", c.gamePin, err)
			}
		}
		c.hub.gameService.Broadcast(c.hub, c.gamePin, "chat", map[string]interface{}{
			"player_id":   c.playerID,
			"player_name": c.playerName,
			"text":        payload.Text,
		})

	case "request_state":
		c.hub.SendGameStateSync(c)

	default:
		log.Printf("Unknown message type: %s from player %s (%s) in game %s", msg.Type, c.playerID, c.playerName, c.gamePin)
	}
}
