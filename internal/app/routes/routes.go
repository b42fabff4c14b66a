package routes

import (
	"net/http"
	"time"

	"github.com/alumnisphere/api/internal/app/auth"
	"github.com/alumnisphere/api/internal/app/controllers"
	"github.com/alumnisphere/api/internal/app/models/dto"
	"github.com/alumnisphere/api/internal/middleware"
	"github.com/alumnisphere/api/internal/pkg/websocket"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Controllers groups the HTTP handlers mounted by SetupRouter
type Controllers struct {
	Auth      *controllers.AuthController
	User      *controllers.UserController
	Profile   *controllers.ProfileController
	Post      *controllers.PostController
	Community *controllers.CommunityController
	Survey    *controllers.SurveyController
	Event     *controllers.EventController
	Chat      *controllers.ChatController
	WebSocket *websocket.Handler
}

// SetupRouter configures all application routes. authLimiter may be nil to
// disable rate limiting of the login and register endpoints.
func SetupRouter(
	router *gin.Engine,
	c Controllers,
	authMiddleware *middleware.AuthMiddleware,
	authLimiter *middleware.RateLimiter,
	storagePath string,
) {
	router.GET("/ping", func(ctx *gin.Context) {
		ctx.String(http.StatusOK, "pong")
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.Static("/uploads", storagePath)

	v1 := router.Group("/api/v1")

	v1.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{
			"status": "ok",
			"time":   time.Now().UTC(),
		}))
	})

	// --- Public user routes ---
	users := v1.Group("/users")
	{
		limited := users.Group("")
		if authLimiter != nil {
			limited.Use(authLimiter.Middleware())
		}
		limited.POST("/register", c.Auth.Register)
		limited.POST("/login", c.Auth.Login)
		users.POST("/refresh", c.Auth.RefreshToken)
	}

	// --- Authenticated routes ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())

	me := authenticated.Group("/users/me")
	{
		me.GET("", c.Auth.GetMe)
		me.POST("/password", c.Auth.ChangePassword)
		me.POST("/avatar", c.Auth.UploadAvatar)
	}

	admin := authenticated.Group("/admin/users")
	{
		admin.GET("", authMiddleware.Authorize(auth.ResourceUsers, auth.ActionList), c.User.ListUsers)
		admin.POST("/:id/verify", authMiddleware.Authorize(auth.ResourceUsers, auth.ActionVerify), c.User.VerifyUser)
		admin.POST("/:id/reject", authMiddleware.Authorize(auth.ResourceUsers, auth.ActionReject), c.User.RejectUser)
	}

	profiles := authenticated.Group("/profiles")
	{
		profiles.GET("", c.Profile.ListProfiles)
		profiles.GET("/me", c.Profile.GetMyProfile)
		profiles.PATCH("/me", c.Profile.UpdateMyProfile)
		profiles.GET("/:id", c.Profile.GetProfile)
	}

	// Direct messaging
	rooms := authenticated.Group("/rooms")
	{
		rooms.GET("", c.Chat.ListRooms)
		rooms.POST("", c.Chat.CreateRoom)
		rooms.GET("/with_user", c.Chat.GetRoomWithUser)
		rooms.GET("/:id", c.Chat.GetRoom)
		rooms.POST("/:id/mark_read", c.Chat.MarkRead)
	}

	messages := authenticated.Group("/messages")
	{
		messages.GET("", c.Chat.ListMessages)
		messages.POST("", c.Chat.SendMessage)
		messages.GET("/:id", c.Chat.GetMessage)
		messages.DELETE("/:id", c.Chat.DeleteMessage)
	}

	posts := authenticated.Group("/posts")
	{
		posts.GET("", c.Post.ListPosts)
		posts.POST("", c.Post.CreatePost)
		posts.GET("/:id", c.Post.GetPost)
		posts.PUT("/:id", c.Post.UpdatePost)
		posts.DELETE("/:id", c.Post.DeletePost)
		posts.POST("/:id/lock_comments", c.Post.LockComments)
		posts.POST("/:id/react", c.Post.React)
		posts.DELETE("/:id/react", c.Post.RemoveReaction)
		posts.POST("/:id/comment", c.Post.AddComment)
	}

	comments := authenticated.Group("/comments")
	{
		comments.GET("", c.Post.ListComments)
		comments.PUT("/:id", c.Post.UpdateComment)
		comments.DELETE("/:id", c.Post.DeleteComment)
	}

	communities := authenticated.Group("/communities")
	{
		communities.GET("", c.Community.ListGroups)
		communities.POST("", c.Community.CreateGroup)
		communities.GET("/:id", c.Community.GetGroup)
		communities.POST("/:id/join_group", c.Community.JoinGroup)
		communities.GET("/:id/members", c.Community.ListMembers)
		communities.POST("/:id/create_post", c.Community.CreateGroupPost)
		communities.GET("/:id/posts", c.Community.ListGroupPosts)
	}

	surveys := authenticated.Group("/surveys")
	{
		manage := authMiddleware.Authorize(auth.ResourceSurveys, auth.ActionManage)

		surveys.GET("", c.Survey.ListSurveys)
		surveys.POST("", manage, c.Survey.CreateSurvey)
		surveys.GET("/:id", c.Survey.GetSurvey)
		surveys.PUT("/:id", manage, c.Survey.UpdateSurvey)
		surveys.DELETE("/:id", manage, c.Survey.DeleteSurvey)
		surveys.GET("/:id/questions", c.Survey.ListQuestions)
		surveys.POST("/:id/submit_response", c.Survey.SubmitResponse)
		surveys.GET("/:id/results", authMiddleware.Authorize(auth.ResourceSurveys, auth.ActionResults), c.Survey.GetResults)
	}

	events := authenticated.Group("/events")
	{
		events.GET("", c.Event.ListEvents)
		events.POST("", authMiddleware.Authorize(auth.ResourceEvents, auth.ActionCreate), c.Event.CreateEvent)
		events.GET("/:id", c.Event.GetEvent)
	}

	// The socket authenticates with the same JWT; browsers pass it as ?token=.
	router.GET("/ws", authMiddleware.JWTAuth(), c.WebSocket.HandleConnection)
}
