package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/greenleaf-nursery/nursery-api/config"
	"github.com/greenleaf-nursery/nursery-api/controllers"
	"github.com/greenleaf-nursery/nursery-api/events"
	"github.com/greenleaf-nursery/nursery-api/middleware"
	"github.com/greenleaf-nursery/nursery-api/migrations"
	"github.com/greenleaf-nursery/nursery-api/models"
	"github.com/greenleaf-nursery/nursery-api/services"
)

const cartJanitorInterval = time.Minute

func main() {
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.LUTC|log.Lshortfile)
	logger.Println("Starting Nursery API server...")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	if err := config.ConnectDatabase(cfg); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := migrateSchema(ctx, cfg, logger); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}
	logger.Println("Database migration completed successfully")

	if cfg.AWSS3Bucket != "" {
		s3Service, err := services.InitS3Service(ctx, cfg)
		if err != nil {
			logger.Fatalf("Failed to initialize S3: %v", err)
		}
		services.InitImageService(s3Service)
		logger.Printf("Plant images stored in s3://%s", cfg.AWSS3Bucket)
	} else {
		logger.Println("AWS_S3_BUCKET not set, plant image uploads are disabled")
	}

	if cfg.KafkaEnabled() {
		publisher := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer publisher.Close()
		events.SetPublisher(publisher)
		logger.Printf("Publishing order events to %s on %v", cfg.KafkaTopic, cfg.KafkaBrokers)
	}

	router, err := setupRouter(cfg)
	if err != nil {
		logger.Fatalf("Failed to set up routes: %v", err)
	}

	go services.GetCartRegistry().RunJanitor(ctx, cartJanitorInterval, cfg.CartIdleTimeout)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Printf("Server is running on http://localhost:%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Printf("Server shutdown: %v", err)
	}
}

// migrateSchema applies the versioned migrations on Postgres and falls back
// to AutoMigrate for the other drivers.
func migrateSchema(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	if cfg.DBDriver == "postgres" {
		return migrations.Apply(ctx, cfg.DatabaseURL, logger)
	}
	return config.GetDB().WithContext(ctx).AutoMigrate(models.All()...)
}

// corsConfig allows the storefront and the notification clients. Preflights
// answer 200 and the cart session header is readable by browsers.
func corsConfig(cfg *config.Config) cors.Config {
	c := cors.Config{
		AllowMethods:              []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:              []string{"Origin", "Content-Type", "Authorization", "X-Client-Info", "Apikey", middleware.CartSessionHeader},
		ExposeHeaders:             []string{middleware.CartSessionHeader},
		MaxAge:                    12 * time.Hour,
		OptionsResponseStatusCode: http.StatusOK,
	}

	origins := cfg.CORSOrigins
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
		c.AllowCredentials = true
	}
	return c
}

const notificationsPath = "/api/v1/notifications/"

// notificationCORSConfig lets any origin reach the notification endpoint,
// whatever CORS_ORIGINS says.
func notificationCORSConfig() cors.Config {
	return cors.Config{
		AllowAllOrigins:           true,
		AllowMethods:              []string{"POST", "OPTIONS"},
		AllowHeaders:              []string{"Origin", "Content-Type", "Authorization", "X-Client-Info", "Apikey"},
		MaxAge:                    12 * time.Hour,
		OptionsResponseStatusCode: http.StatusOK,
	}
}

// routeCORS applies the notification policy under notificationsPath and the
// configured policy everywhere else.
func routeCORS(cfg *config.Config) gin.HandlerFunc {
	storefront := cors.New(corsConfig(cfg))
	notifications := cors.New(notificationCORSConfig())
	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, notificationsPath) {
			notifications(c)
			return
		}
		storefront(c)
	}
}

// setupRouter wires every route. Admin routes require a valid token that
// carries cfg.AdminScope.
func setupRouter(cfg *config.Config) (*gin.Engine, error) {
	validateToken, err := middleware.NewTokenValidator(cfg)
	if err != nil {
		return nil, err
	}

	router := gin.Default()
	router.Use(routeCORS(cfg))

	cartSession := middleware.CartSession(int(cfg.CartIdleTimeout.Seconds()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/database/status", databaseStatus)

		v1.GET("/plants", controllers.ListPlants)
		v1.GET("/plants/:id", controllers.GetPlant)
		v1.GET("/categories", controllers.ListCategories)

		shop := v1.Group("", cartSession)
		shop.GET("/cart", controllers.GetCart)
		shop.POST("/cart/items", controllers.AddCartItem)
		shop.PUT("/cart/items/:plantId", controllers.UpdateCartItem)
		shop.DELETE("/cart/items/:plantId", controllers.RemoveCartItem)
		shop.DELETE("/cart", controllers.ClearCart)
		shop.POST("/checkout", controllers.CheckoutCart)
		shop.POST("/checkout/:plantId", controllers.BuyNow)

		v1.POST("/contact", controllers.SubmitContact)

		v1.OPTIONS("/notifications/order-email", controllers.OrderEmailPreflight)
		v1.POST("/notifications/order-email", controllers.SendOrderEmail)

		admin := v1.Group("/admin",
			middleware.EnsureValidToken(validateToken),
			middleware.RequireScope(cfg.AdminScope),
		)
		{
			admin.GET("/me", controllers.GetAdminProfile)
			admin.GET("/dashboard", controllers.GetDashboard)

			admin.GET("/plants", controllers.ListPlants)
			admin.POST("/plants", controllers.CreatePlant)
			admin.PUT("/plants/:id", controllers.UpdatePlant)
			admin.DELETE("/plants/:id", controllers.DeletePlant)
			admin.POST("/plants/:id/image", controllers.UploadPlantImage)

			admin.GET("/orders", controllers.ListOrders)
			admin.GET("/orders/:id", controllers.GetOrder)
			admin.PUT("/orders/:id/status", controllers.UpdateOrderStatus)
			admin.DELETE("/orders/:id", controllers.DeleteOrder)

			admin.GET("/messages", controllers.ListMessages)
			admin.GET("/messages/:id", controllers.GetMessage)
			admin.PUT("/messages/:id/read", controllers.MarkMessageRead)
			admin.DELETE("/messages/:id", controllers.DeleteMessage)
		}
	}

	return router, nil
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Nursery API is running",
	})
}

// databaseStatus checks database connectivity and returns table information
func databaseStatus(c *gin.Context) {
	db := config.GetDB()

	// Get the underlying SQL database to check connection
	sqlDB, err := db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to get database instance",
			},
		})
		return
	}

	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_CONNECTION_ERROR",
				"message": "Database connection failed",
			},
		})
		return
	}

	tables, err := db.WithContext(c.Request.Context()).Migrator().GetTables()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_QUERY_ERROR",
				"message": "Failed to query tables",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connected",
		"driver":  db.Dialector.Name(),
		"tables":  tables,
	})
}
