package routes

import (
	"log"
	"net/http"
	"strings"

	"tabletop/handlers"
	"tabletop/middleware"
	"tabletop/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

func SetupRoutes(
	router *gin.Engine,
	authHandler *handlers.AuthHandler,
	gameHandler *handlers.GameHandler,
	socialHandler *handlers.SocialHandler,
	hub *services.Hub,
	gameService *services.GameService,
	jwtSecret string,
) {
	// API routes
	api := router.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}

		// Protected routes
		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware(jwtSecret))
		{
			// User profile
			protected.GET("/auth/profile", authHandler.GetProfile)

			// Friends
			friends := protected.Group("/friends")
			{
				friends.GET("", socialHandler.ListFriends)
				friends.POST("", socialHandler.SendFriendRequest)
				friends.POST("/:id/accept", socialHandler.AcceptFriendRequest)
			}
		}

		// Public game routes: guests play without an account.
		games := api.Group("/games")
		{
			games.GET("/types", gameHandler.ListGameTypes)
			games.GET("/types/:type/rules", gameHandler.GetGameRules)
			games.POST("", gameHandler.CreateGame)
			games.POST("/join", gameHandler.JoinGame)
			games.GET("/:pin", gameHandler.GetGame)
			games.GET("/:pin/record", gameHandler.GetGameRecord)
			games.GET("/:pin/chat", socialHandler.GetChatHistory)
			games.POST("/:pin/start", gameHandler.StartGame)
			games.POST("/:pin/move", gameHandler.SubmitMove)
			games.POST("/:pin/leave", gameHandler.LeaveGame)
			games.POST("/:pin/rematch", gameHandler.Rematch)
			games.POST("/:pin/bots", gameHandler.AddBot)
		}
	}

	// WebSocket endpoint for real-time game communication
	router.GET("/ws/:pin/:playerID", func(c *gin.Context) {
		pin := strings.ToLower(c.Param("pin"))
		playerID := c.Param("playerID")
		playerName := c.Query("playerName")

		state, err := gameService.GetGameState(pin)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
			return
		}

		player := state.FindPlayer(playerID)
		if player == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Player not found in game"})
			return
		}
		if playerName == "" {
			playerName = player.Name
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("WebSocket upgrade failed for game %s, player %s: %v", pin, playerID, err)
			return
		}

		log.Printf("WebSocket connection established for game %s, player %s (%s)", pin, playerID, playerName)
		hub.RegisterClient(conn, pin, playerID, playerName)
	})

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
