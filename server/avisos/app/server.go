package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/xdie/clasificados/server/avisos/api"
	"github.com/xdie/clasificados/server/avisos/repository"
	"github.com/xdie/clasificados/server/avisos/service"
	"github.com/xdie/clasificados/server/avisos/storage"
	"github.com/xdie/clasificados/server/common/infra/cache"
	"github.com/xdie/clasificados/server/common/infra/db"
	"github.com/xdie/clasificados/server/common/infra/mq"
	"github.com/xdie/clasificados/server/common/infra/object"
	commonlog "github.com/xdie/clasificados/server/common/log"
)

type Server struct {
	HTTPServer *http.Server
	DB         *pgxpool.Pool
	Publisher  *service.AMQPPublisher
}

func NewServer(cfg Config) (*Server, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbPool, err := db.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("initialize postgres: %w", err)
	}
	avisoRepo := repository.NewAvisoRepository(dbPool)
	if err := avisoRepo.EnsureSchema(ctx); err != nil {
		dbPool.Close()
		return nil, err
	}

	var redisClient *redis.Client
	if cfg.UseCache && cfg.RedisAddr != "" {
		client := cache.NewClient(cfg.RedisAddr)
		if err := cache.Ping(ctx, client); err != nil {
			commonlog.Warnf("redis unavailable at %s, listing cache disabled: %v", cfg.RedisAddr, err)
		} else {
			redisClient = client
		}
	}

	var amqpPublisher *service.AMQPPublisher
	if cfg.UseMQ {
		conn, err := mq.NewConnection(cfg.LavinMQURL)
		if err != nil {
			commonlog.Warnf("mq unavailable, aviso events disabled: %v", err)
		} else if amqpPublisher, err = service.NewAMQPPublisher(conn); err != nil {
			commonlog.Warnf("mq channel setup failed, aviso events disabled: %v", err)
			_ = conn.Close()
			amqpPublisher = nil
		}
	}

	var mirror service.Mirror
	if cfg.MinioMirrorEnabled {
		minioClient, err := object.NewClient(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioUseSSL)
		if err != nil {
			dbPool.Close()
			return nil, fmt.Errorf("initialize minio: %w", err)
		}
		if err := object.EnsureBucket(ctx, minioClient, cfg.MinioBucket); err != nil {
			dbPool.Close()
			return nil, fmt.Errorf("ensure minio bucket: %w", err)
		}
		mirror = object.NewBucketMirror(minioClient, cfg.MinioBucket)
	}

	store := storage.NewDiskStore(cfg.UploadsRoot)
	ingestSvc := service.NewIngestService(store, mirror)
	feedSvc := service.NewFeedService()

	var publisher service.EventPublisher
	if amqpPublisher != nil {
		publisher = amqpPublisher
	}
	listingSvc := service.NewListingService(avisoRepo, redisClient, publisher, feedSvc)

	h := api.NewHandler(ingestSvc, listingSvc, feedSvc, api.Options{
		UploadsRoot:       cfg.UploadsRoot,
		MaxFilesPerBatch:  cfg.MaxFilesPerBatch,
		MaxFileBytes:      cfg.MaxUploadSizeMB << 20,
		AllowedMediaTypes: cfg.AllowedMediaTypes,
	})

	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	r.MaxMultipartMemory = cfg.MaxUploadSizeMB << 20
	r.Use(cors.Default())
	h.RegisterRoutes(r)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  20 * time.Second,
		WriteTimeout: 20 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{HTTPServer: httpServer, DB: dbPool, Publisher: amqpPublisher}, nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.Publisher != nil {
		s.Publisher.Close()
	}
	if s.DB != nil {
		s.DB.Close()
	}
	return s.HTTPServer.Shutdown(ctx)
}
