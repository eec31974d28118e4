package api

import (
	"context"
	"time"

	_ "sprintdesk/docs"
	"sprintdesk/internal/app/config"
	"sprintdesk/internal/app/dsn"
	"sprintdesk/internal/app/handler"
	"sprintdesk/internal/app/mailer"
	"sprintdesk/internal/app/metrics"
	"sprintdesk/internal/app/middleware"
	"sprintdesk/internal/app/redis"
	"sprintdesk/internal/app/repository"
	"sprintdesk/internal/app/storage"
	"sprintdesk/internal/pkg"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func StartServer() {
	log.Info("Starting server")

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("ошибка загрузки конфигурации: %v", err)
	}
	cfg.ConfigureLogger()

	repo, err := repository.New(dsn.FromEnv())
	if err != nil {
		log.Fatalf("ошибка инициализации репозитория: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		log.Fatalf("ошибка подключения к Redis: %v", err)
	}
	defer redisClient.Close()

	// без MinIO загрузка файлов отвечает 503, остальное API работает
	var objectStorage handler.ObjectStorage
	if cfg.Minio.Endpoint != "" {
		minioClient, err := storage.NewMinIOClient(ctx, cfg.Minio.Endpoint, cfg.Minio.AccessKey,
			cfg.Minio.SecretKey, cfg.Minio.Bucket, cfg.Minio.UseSSL)
		if err != nil {
			log.Fatalf("ошибка подключения к MinIO: %v", err)
		}
		objectStorage = minioClient
	} else {
		log.Warn("MINIO_ENDPOINT не задан, загрузка файлов отключена")
	}

	h := handler.NewAPIHandler(repo, objectStorage, redisClient, mailer.New(cfg.Mailgun), cfg)
	authMiddleware := middleware.NewAuthMiddleware(redisClient, cfg.JWT.Token)

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(metrics.Middleware())
	r.GET("/metrics", metrics.Handler())
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	pkg.NewApp(cfg, r, h, authMiddleware).RunApp()
	log.Info("Server down")
}
