package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"time"
)

// serve 在 ln 上运行 srv，ctx 取消后优雅关闭
//
// 返回前保证 Shutdown 已结束：进行中的请求已处理完或超过 timeout 被强制关闭，
// 调用方随后才能安全地关闭存储与缓存。
func serve(ctx context.Context, srv *http.Server, ln net.Listener, timeout time.Duration) error {
	done := make(chan error, 1)
	go func() {
		<-ctx.Done()

		log.Println("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		if err != nil {
			log.Printf("Server shutdown error: %v", err)
			srv.Close()
		}
		done <- err
	}()

	if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return <-done
}
