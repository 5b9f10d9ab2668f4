// Package main API Server 入口
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"biovault/api"
	"biovault/internal/apiserver/auth"
	"biovault/internal/apiserver/dataset"
	"biovault/internal/apiserver/metrics"
	"biovault/internal/apiserver/server"
	"biovault/internal/apiserver/user"
	"biovault/internal/config"
	"biovault/internal/shared/infra"
	"biovault/internal/shared/objstore"
	"biovault/internal/telemetry"
	"biovault/pkg/logging"
)

// shutdownTimeout 优雅关闭等待进行中请求的上限
const shutdownTimeout = 30 * time.Second

func main() {
	configDir := flag.String("config", "", "配置文件目录（覆盖 CONFIG_DIR）")
	flag.Parse()
	if *configDir != "" {
		config.SetConfigDir(*configDir)
	}

	// 加载配置（自动加载 .env.{env}，按 APP_ENV 选择 YAML）
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	log.Printf("Starting API Server... [env=%s]", cfg.Env)
	log.Printf("Config: %s", cfg.String())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing := telemetry.Setup(ctx, cfg.Telemetry)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			log.Printf("Tracing shutdown error: %v", err)
		}
	}()

	logger := logging.New(logging.Config{
		Level:     cfg.Log.Level,
		Format:    cfg.Log.Format,
		Output:    "stdout",
		Component: "api-server",
	})

	// 存储与缓存
	inf, err := infra.New(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize infrastructure: %v", err)
	}
	defer inf.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New("biovault", reg)

	issuer, err := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		log.Fatalf("Failed to create token issuer: %v", err)
	}

	lister, err := newLister(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize dataset source: %v", err)
	}

	doc, err := api.LoadDocument(ctx)
	if err != nil {
		log.Fatalf("Failed to load OpenAPI document: %v", err)
	}

	var limiter *server.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = server.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, cfg.RateLimit.TrustForwarded)
	}

	h := server.NewHandler(server.Deps{
		Store: inf.Storage,
		Users: user.NewService(inf.Storage, issuer, user.Options{
			Cache:         inf.Cache,
			Metrics:       m,
			Logger:        logger,
			StrictAddress: cfg.Auth.StrictAddress,
		}),
		Datasets: lister,
		Gate:     auth.NewGatekeeper(issuer, m),
		Metrics:  m,
		Logger:   logger,
		Limiter:  limiter,
		OpenAPI:  doc,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      otelhttp.NewHandler(h.Router(), cfg.Telemetry.ServiceName),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		log.Fatalf("Failed to listen on :%s: %v", cfg.APIPort, err)
	}

	// 优雅关闭：serve 在 Shutdown 完成后才返回，之后 defer 关闭存储与缓存
	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("API Server listening on :%s", cfg.APIPort)
	if err := serve(sigCtx, srv, ln, shutdownTimeout); err != nil {
		log.Printf("Server error: %v", err)
	}

	fmt.Println("Server stopped")
}

// newLister 按 datasets.source 选择数据集来源
func newLister(ctx context.Context, cfg *config.Config) (dataset.Lister, error) {
	if cfg.Datasets.Source != "minio" {
		log.Printf("[Datasets] Using built-in demo datasets")
		return dataset.MockLister{}, nil
	}

	client, err := objstore.NewClient(cfg.MinIO)
	if err != nil {
		return nil, err
	}
	if err := client.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	log.Printf("[Datasets] Listing objects from bucket %s prefix=%q", client.Bucket(), cfg.Datasets.Prefix)
	return dataset.NewMinIOLister(client, cfg.Datasets.Prefix), nil
}
