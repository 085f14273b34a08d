package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"tabletop/games"
	"tabletop/services"

	"github.com/gin-gonic/gin"
)

type GameHandler struct {
	gameService *services.GameService
	authService *services.AuthService
	botService  *services.BotService
	hub         *services.Hub
}

func NewGameHandler(gameService *services.GameService, authService *services.AuthService, botService *services.BotService, hub *services.Hub) *GameHandler {
	return &GameHandler{
		gameService: gameService,
		authService: authService,
		botService:  botService,
		hub:         hub,
	}
}

// hostPlayer resolves the request's identity into a game player: the
// authenticated user when present, otherwise a fresh guest.
func (h *GameHandler) hostPlayer(c *gin.Context, name string) (games.Player, *uint) {
	if v, exists := c.Get("user_id"); exists {
		userID := v.(uint)
		if user, err := h.authService.GetProfile(userID); err == nil {
			displayName := name
			if displayName == "" {
				displayName = user.Name
			}
			return games.Player{ID: "user-" + strconv.FormatUint(uint64(user.ID), 10), Name: displayName, IsActive: true}, &userID
		}
	}
	return h.authService.GuestPlayer(name), nil
}

func (h *GameHandler) CreateGame(c *gin.Context) {
	var req services.CreateGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	host, userID := h.hostPlayer(c, req.PlayerName)
	state, err := h.gameService.CreateGame(req.GameType, host, userID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"state": state, "player_id": host.ID})
}

func (h *GameHandler) JoinGame(c *gin.Context) {
	var req services.JoinGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	player, userID := h.hostPlayer(c, req.PlayerName)
	state, err := h.gameService.JoinGame(strings.ToLower(req.Pin), player, userID, false, h.hub)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"state": state, "player_id": player.ID})
}

func (h *GameHandler) AddBot(c *gin.Context) {
	pin := strings.ToLower(c.Param("pin"))
	var req struct {
		Name string `json:"name"`
	}
	c.ShouldBindJSON(&req)
	if req.Name == "" {
		req.Name = "Bot"
	}

	bot := h.authService.BotPlayer(req.Name)
	state, err := h.gameService.JoinGame(pin, bot, nil, true, h.hub)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"state": state, "bot_id": bot.ID})
}

func (h *GameHandler) GetGame(c *gin.Context) {
	pin := strings.ToLower(c.Param("pin"))
	state, err := h.gameService.GetGameState(pin)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (h *GameHandler) GetGameRules(c *gin.Context) {
	gameType := c.Param("type")
	engine, ok := games.GetEngine(gameType)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown game type"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"game_type": gameType, "rules": engine.Rules()})
}

func (h *GameHandler) ListGameTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"game_types": games.ListGameTypes()})
}

func (h *GameHandler) StartGame(c *gin.Context) {
	pin := strings.ToLower(c.Param("pin"))
	var req struct {
		Shuffle bool `json:"shuffle"`
	}
	c.ShouldBindJSON(&req)

	state, err := h.gameService.StartGame(pin, req.Shuffle, h.hub)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// The opening seat may belong to a bot.
	h.hub.RunBotTurnIfDue(pin)

	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (h *GameHandler) SubmitMove(c *gin.Context) {
	pin := strings.ToLower(c.Param("pin"))

	var req services.SubmitMoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	move := games.Move{
		PlayerID:  req.PlayerID,
		Type:      req.Type,
		Data:      req.Data,
		Timestamp: time.Now(),
	}
	state, ok, err := h.gameService.SubmitMove(pin, move, h.hub)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !ok {
		// Illegal moves are a normal outcome; hand back the authoritative
		// state so the client can reconcile.
		c.JSON(http.StatusOK, gin.H{"accepted": false, "state": state})
		return
	}

	h.hub.RunBotTurnIfDue(pin)

	c.JSON(http.StatusOK, gin.H{"accepted": true, "state": state})
}

func (h *GameHandler) LeaveGame(c *gin.Context) {
	pin := strings.ToLower(c.Param("pin"))
	var req struct {
		PlayerID string `json:"player_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	state, err := h.gameService.LeaveGame(pin, req.PlayerID, h.hub)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (h *GameHandler) Rematch(c *gin.Context) {
	pin := strings.ToLower(c.Param("pin"))
	state, err := h.gameService.Rematch(pin, h.hub)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (h *GameHandler) GetGameRecord(c *gin.Context) {
	pin := strings.ToLower(c.Param("pin"))
	record, err := h.gameService.GetGameRecord(pin)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Game record not found"})
		return
	}
	c.JSON(http.StatusOK, record)
}
