package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"backend/internal/assistant"
	"backend/internal/config"
	"backend/internal/database"
	"backend/internal/handlers"
	"backend/internal/location"
	"backend/internal/middleware"
	"backend/internal/realtime"
	"backend/internal/session"
	"backend/internal/store"
)

func main() {
	config.Load()

	client, err := database.Connect(config.AppEnv.MongoURI)
	if err != nil {
		log.Fatal(err)
	}

	db := client.Database(config.AppEnv.DBName)

	log.Println("MongoDB connected to:", db.Name())

	if err := database.EnsureProfileIndexes(db); err != nil {
		log.Println("⚠️ profile index warning:", err)
	}
	if err := database.EnsureOrderIndexes(db); err != nil {
		log.Println("⚠️ order index warning:", err)
	}
	if err := database.EnsureMessageIndexes(db); err != nil {
		log.Println("⚠️ message index warning:", err)
	}
	if err := database.EnsurePendingSignupIndexes(db); err != nil {
		log.Println("⚠️ pending signup index warning:", err)
	}

	st := store.New(db)

	var cache *redis.Client
	if config.AppEnv.RedisAddr != "" {
		cache = redis.NewClient(&redis.Options{Addr: config.AppEnv.RedisAddr})
	}
	locator := location.NewService(cache)

	sessions := session.NewManager(
		st,
		locator,
		config.AppEnv.AdminEmails,
		config.AppEnv.ProfileFetchTimeout,
		config.AppEnv.AuthLoadCeiling,
	)
	guard := session.NewGuard()

	chat := assistant.NewService(context.Background(), config.AppEnv.GeminiAPIKey)

	mirror := realtime.NewMirror()
	hub := realtime.NewHub()
	bridge := realtime.NewBridge(st, hub, mirror)
	go bridge.Run(context.Background())

	secret := config.AppEnv.JWTSecret
	accessTTL := config.AppEnv.AccessTokenTTL
	refreshTTL := config.AppEnv.RefreshTokenTTL

	r := gin.Default()

	r.POST("/auth/signup", handlers.Signup(st, config.AppEnv.SignupCodeTTL))
	r.POST("/auth/verify", handlers.VerifySignup(st, sessions, guard, secret, accessTTL, refreshTTL))
	r.POST("/auth/resend", handlers.ResendCode(st, config.AppEnv.SignupCodeTTL))
	r.POST("/auth/login", handlers.Login(st, sessions, guard, secret, accessTTL, refreshTTL))
	r.POST("/auth/refresh", handlers.Refresh(st, sessions, guard, secret, accessTTL, refreshTTL))
	r.POST("/auth/logout", handlers.Logout(st, guard))
	r.GET("/auth/me", middleware.AuthGuard(secret), handlers.GetMe(sessions, guard))

	r.GET("/health", handlers.Health(st, hub))
	r.GET("/settings", handlers.GetSettings(st))
	r.POST("/assistant/chat", handlers.AssistantChat(chat))

	authed := r.Group("/")
	authed.Use(middleware.AuthGuard(secret))
	{
		authed.GET("/events", handlers.StreamEvents(hub, mirror))

		authed.POST("/orders", handlers.CreateOrder(st))
		authed.GET("/orders", handlers.ListOrders(st))
		authed.PUT("/orders/:id/details", handlers.SubmitOrderDetails(st))

		authed.GET("/messages", handlers.ListMessages(st))
		authed.POST("/messages", handlers.SendMessage(st))
		authed.POST("/messages/read", handlers.MarkMessagesRead(st))

		authed.POST("/notifications/permission", handlers.SetNotifyPermission(st, hub))
	}

	admin := r.Group("/admin/api")
	admin.Use(middleware.AdminAuth(secret))
	{
		admin.GET("/users", handlers.ListUsers(st))

		admin.POST("/orders/:id/approve", handlers.ApproveOrder(st))
		admin.POST("/orders/:id/reject", handlers.RejectOrder(st))
		admin.POST("/orders/:id/activate", handlers.ActivateOrder(st))
		admin.POST("/orders/:id/request-info", handlers.RequestOrderInfo(st))
		admin.POST("/orders/:id/complete", handlers.CompleteOrder(st))

		admin.PUT("/settings", handlers.UpdateSettings(st))
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	r.Run(":" + port)
}
