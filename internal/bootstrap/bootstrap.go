package bootstrap

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	appAuth "github.com/alumnisphere/api/internal/app/auth"
	appControllers "github.com/alumnisphere/api/internal/app/controllers"
	appMigrations "github.com/alumnisphere/api/internal/app/migrations"
	appRepos "github.com/alumnisphere/api/internal/app/repositories"
	appRoutes "github.com/alumnisphere/api/internal/app/routes"
	appServices "github.com/alumnisphere/api/internal/app/services"
	"github.com/alumnisphere/api/internal/config"
	"github.com/alumnisphere/api/internal/db"
	appMiddleware "github.com/alumnisphere/api/internal/middleware"
	pkgAuth "github.com/alumnisphere/api/internal/pkg/auth"
	"github.com/alumnisphere/api/internal/pkg/email"
	"github.com/alumnisphere/api/internal/pkg/filestorage"
	"github.com/alumnisphere/api/internal/pkg/helpers"
	"github.com/alumnisphere/api/internal/pkg/logger"
	"github.com/alumnisphere/api/internal/pkg/validation"
	"github.com/alumnisphere/api/internal/pkg/websocket"
	"github.com/alumnisphere/api/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repos        *appRepos.Repositories
	JWTService   *pkgAuth.JWTService
	AuthzService *appAuth.AuthorizationService
	EmailService email.EmailService
	FileStorage  *filestorage.LocalStorage
	Hub          *websocket.Hub
	AuthLimiter  *appMiddleware.RateLimiter
	Middleware   *appMiddleware.AuthMiddleware
	Controllers  appRoutes.Controllers
	Logger       zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger(configPath string) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Str("path", configPath).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	level := logger.ParseLevel(cfg.Logging.Level)
	lgr := logger.Configure(logger.Config{
		Level:  level,
		Pretty: strings.ToLower(cfg.Logging.Format) == "text",
	})

	lgr.Info().Str("logLevel", string(level)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection, runs migrations and
// seeds the administrator account.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	lgr.Info().Msg("Establishing database connection...")
	dbPool, err := db.NewPool(ctx, cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}

	migrationsDir := cfg.Database.MigrationsPath
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		dbPool.Close()
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	lgr.Info().Str("path", migrationsDir).Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(dbPool, logger.Component("migrations"))
	if err := migrator.MigrateFromDirectory(ctx, migrationsDir); err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	admin := seed.AdminAccount{
		Username: cfg.Auth.AdminUsername,
		Email:    cfg.Auth.AdminEmail,
		Password: cfg.Auth.AdminPassword,
	}
	if err := seed.CreateDefaultAdmin(ctx, appRepos.NewUserRepository(dbPool), admin, lgr); err != nil {
		lgr.Error().Err(err).Msg("Failed to create default admin, proceeding anyway...")
	}

	return dbPool, nil
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(cfg *config.Config, dbPool *pgxpool.Pool, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	if err := validation.RegisterWithGin(); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	deps.Repos = appRepos.NewRepositories(dbPool)

	var err error
	uploadsURL := strings.TrimRight(cfg.Server.BaseURL, "/") + "/uploads"
	deps.FileStorage, err = filestorage.NewLocalStorage(cfg.Server.StoragePath, uploadsURL, filestorage.ImageExtensions...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}

	deps.AuthzService, err = appAuth.NewAuthorizationService()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize authorization: %w", err)
	}

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:       cfg.JWT.Secret,
		AccessTokenExp:  helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, time.Hour),
		RefreshTokenExp: helpers.ParseDuration(cfg.JWT.RefreshTokenExpiration, 720*time.Hour),
		TokenIssuer:     cfg.JWT.Issuer,
	})

	deps.EmailService = email.NewEmailService(email.SMTPConfig{
		Host:      cfg.SMTP.Host,
		Port:      cfg.SMTP.Port,
		Username:  cfg.SMTP.Username,
		Password:  cfg.SMTP.Password,
		FromName:  cfg.SMTP.FromName,
		FromEmail: cfg.SMTP.FromEmail,
		UseTLS:    cfg.SMTP.UseTLS,
		BaseURL:   cfg.Server.BaseURL,
	}, logger.Component("email"))

	deps.Hub = websocket.NewHub(logger.Component("websocket"))
	go deps.Hub.Run()

	repos := deps.Repos
	authService := appServices.NewAuthService(repos.UserRepository, repos.TokenRepository, deps.JWTService, logger.Component("auth"))
	userService := appServices.NewUserService(repos.UserRepository, deps.EmailService, deps.FileStorage, appServices.UserServiceConfig{
		FacultyDefaultPassword: cfg.Auth.FacultyDefaultPassword,
		PasswordChangeWindow:   helpers.ParseDuration(cfg.Auth.PasswordChangeWindow, 24*time.Hour),
	}, logger.Component("users"))
	chatService := appServices.NewChatService(repos.ChatRepository, repos.UserRepository, deps.Hub, logger.Component("chat"))
	profileService := appServices.NewProfileService(repos.ProfileRepository, lgr)
	postService := appServices.NewPostService(repos.PostRepository, deps.AuthzService, lgr)
	communityService := appServices.NewCommunityService(repos.CommunityRepository, lgr)
	surveyService := appServices.NewSurveyService(repos.SurveyRepository, lgr)
	eventService := appServices.NewEventService(repos.EventRepository, repos.UserRepository, deps.EmailService, logger.Component("events"))

	deps.Middleware = appMiddleware.NewAuthMiddleware(deps.JWTService, deps.AuthzService, authService)
	if cfg.RateLimit.Enabled {
		deps.AuthLimiter = appMiddleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	}

	deps.Controllers = appRoutes.Controllers{
		Auth:      appControllers.NewAuthController(authService, userService, lgr),
		User:      appControllers.NewUserController(userService, lgr),
		Profile:   appControllers.NewProfileController(profileService),
		Post:      appControllers.NewPostController(postService),
		Community: appControllers.NewCommunityController(communityService, lgr),
		Survey:    appControllers.NewSurveyController(surveyService, lgr),
		Event:     appControllers.NewEventController(eventService),
		Chat:      appControllers.NewChatController(chatService, logger.Component("chat")),
		WebSocket: websocket.NewHandler(deps.Hub, websocket.NewMessageHandler(chatService, authService, logger.Component("websocket")), logger.Component("websocket")),
	}

	return deps, nil
}

// Close stops the background workers owned by the dependencies.
func (d *Dependencies) Close() {
	if d.Hub != nil {
		d.Hub.Stop()
	}
	if d.AuthLimiter != nil {
		d.AuthLimiter.Stop()
	}
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.Use(
		appMiddleware.Recovery(lgr),
		appMiddleware.RequestLogger(logger.Component("http")),
		appMiddleware.Metrics(),
		appMiddleware.CORS(cfg.Server.AllowedOrigins),
	)

	appRoutes.SetupSwagger(router, "")
	appRoutes.SetupRouter(router, deps.Controllers, deps.Middleware, deps.AuthLimiter, cfg.Server.StoragePath)

	return router
}
