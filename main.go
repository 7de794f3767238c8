package main

import (
	"fmt"
	"log"
	"os"

	"homehive-server/routes"
	"homehive-server/services"
	"homehive-server/storage"
	"homehive-server/utils"
	"homehive-server/websocket"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

func main() {
	// Only load .env in development
	if os.Getenv("RENDER") == "" {
		godotenv.Load()
	}

	storage.InitializeDB()
	storage.InitializeRedis()

	app := iris.New()
	app.Validator = validator.New()

	// CORS configuration
	app.AllowMethods(iris.MethodOptions)
	app.UseRouter(func(ctx iris.Context) {
		ctx.Header("Access-Control-Allow-Origin", ctx.GetHeader("Origin"))
		ctx.Header("Vary", "Origin")
		ctx.Header("Access-Control-Allow-Credentials", "true")
		ctx.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Requested-With")
		ctx.Header("Access-Control-Allow-Methods", "GET,POST,PATCH,PUT,DELETE,OPTIONS")
		if ctx.Method() == iris.MethodOptions {
			ctx.StatusCode(iris.StatusNoContent)
			return
		}
		ctx.Next()
	})

	app.Use(iris.Compression)

	// JWT verifiers
	accessTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	accessTokenVerifier.WithDefaultBlocklist()
	// Browser WebSocket clients can't set Authorization headers on the
	// upgrade request, so also accept ?token= on the query string.
	accessTokenVerifier.Extractors = append(accessTokenVerifier.Extractors, func(ctx iris.Context) string {
		return ctx.URLParam("token")
	})
	accessTokenVerifierMiddleware := accessTokenVerifier.Verify(func() interface{} {
		return new(utils.AccessToken)
	})

	refreshTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("REFRESH_TOKEN_SECRET")))
	refreshTokenVerifier.WithDefaultBlocklist()
	refreshTokenVerifierMiddleware := refreshTokenVerifier.Verify(func() interface{} {
		return new(jwt.Claims)
	})

	refreshTokenVerifier.Extractors = append(refreshTokenVerifier.Extractors, func(ctx iris.Context) string {
		var tokenInput utils.RefreshTokenInput
		err := ctx.ReadJSON(&tokenInput)
		if err != nil {
			return ""
		}
		return tokenInput.RefreshToken
	})

	// Event consumers: realtime broadcast + notifications
	hub := websocket.NewHub()
	chatSvc := services.NewChatService(storage.NewChatStore(storage.DB), services.Events)
	services.Events.Subscribe("broadcast", websocket.BroadcastConsumer(hub))
	services.NewNotificationService().RegisterConsumers(services.Events)

	// Health check endpoint - CRITICAL for Render
	app.Get("/health", func(ctx iris.Context) {
		ctx.JSON(iris.Map{"status": "ok"})
	})

	user := app.Party("/api/user")
	{
		user.Post("/register", routes.Register)
		user.Post("/login", routes.Login)
		user.Get("/{id}", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.GetUser)
		user.Patch("/profile", accessTokenVerifierMiddleware, routes.UpdateUserProfile)
		user.Patch("/pushtoken", accessTokenVerifierMiddleware, routes.AlterPushToken)
		user.Get("/settings/notifications", accessTokenVerifierMiddleware, routes.GetNotificationSettings)
		user.Patch("/settings/notifications", accessTokenVerifierMiddleware, routes.UpdateNotificationSettings)
	}

	property := app.Party("/api/property")
	{
		property.Get("/", routes.ListProperties)
		property.Post("/", accessTokenVerifierMiddleware, utils.LandlordOnlyMiddleware, routes.CreateProperty)
		property.Get("/mine", accessTokenVerifierMiddleware, utils.LandlordOnlyMiddleware, routes.GetMyProperties)
		property.Get("/saved", accessTokenVerifierMiddleware, utils.TenantOnlyMiddleware, routes.GetSavedProperties)
		property.Get("/{id:uint}", routes.GetProperty)
		property.Patch("/{id:uint}", accessTokenVerifierMiddleware, utils.LandlordOnlyMiddleware, routes.UpdateProperty)
		property.Delete("/{id:uint}", accessTokenVerifierMiddleware, utils.LandlordOnlyMiddleware, routes.DeleteProperty)
		property.Post("/{id:uint}/save", accessTokenVerifierMiddleware, utils.TenantOnlyMiddleware, routes.SaveProperty)
		property.Delete("/{id:uint}/save", accessTokenVerifierMiddleware, utils.TenantOnlyMiddleware, routes.UnsaveProperty)
	}

	reviews := app.Party("/api/reviews")
	{
		reviews.Post("/", accessTokenVerifierMiddleware, utils.TenantOnlyMiddleware, routes.CreateReview)
		reviews.Get("/property/{id:uint}", routes.ListPropertyReviews)
		reviews.Get("/landlord/{id:uint}", routes.ListLandlordReviews)
	}

	chat := app.Party("/api/chat", accessTokenVerifierMiddleware)
	{
		chat.Get("/rooms", routes.ListChatRooms)
		chat.Post("/rooms", utils.TenantOnlyMiddleware, routes.CreateOrGetChatRoom)
		chat.Get("/rooms/{roomID:uint}/messages", routes.ListRoomMessages)
		chat.Post("/rooms/{roomID:uint}/messages", routes.SendRoomMessage)
		chat.Patch("/rooms/{roomID:uint}/read", routes.MarkRoomRead)
		chat.Post("/rooms/{roomID:uint}/typing", routes.Typing)
		chat.Get("/rooms/{roomID:uint}/typing", routes.ListTyping)
		chat.Get("/unread", routes.GetUnreadCount)
	}

	notifications := app.Party("/api/notifications", accessTokenVerifierMiddleware)
	{
		notifications.Get("/", routes.GetMyNotifications)
		notifications.Get("/unread", routes.GetUnreadNotificationCount)
		notifications.Patch("/{id:uint}/read", routes.MarkNotificationRead)
		notifications.Patch("/read-all", routes.MarkAllNotificationsRead)
	}

	help := app.Party("/api/help")
	{
		help.Get("/property-types", routes.GetPropertyTypeHelp)
	}

	app.Get("/ws/chat/{roomID:uint}", accessTokenVerifierMiddleware, websocket.ServeChat(hub, chatSvc))

	app.Post("/api/refresh", refreshTokenVerifierMiddleware, utils.RefreshToken)

	port := os.Getenv("PORT")
	if port == "" {
		port = "4000"
	}
	addr := "0.0.0.0:" + port

	fmt.Printf("🚀 Server starting on %s\n", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("❌ Server failed: %v", err)
	}
}
