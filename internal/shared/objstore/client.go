// Package objstore 封装 MinIO 对象存储客户端
package objstore

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"biovault/internal/config"
)

// OwnerMetaKey 对象的数据所有者元数据（HTTP 头 X-Amz-Meta-Owner），由上传方写入
const OwnerMetaKey = "Owner"

// Object 对象摘要
type Object struct {
	Key   string
	Size  int64
	Owner string
}

// Client MinIO 客户端封装
type Client struct {
	mc     *minio.Client
	bucket string
}

// NewClient 创建 MinIO 客户端
func NewClient(cfg config.MinIOConfig) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("minio access_key and secret_key are required")
	}

	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	bucket := cfg.Bucket
	if bucket == "" {
		bucket = "biovault-datasets"
	}

	return &Client{mc: mc, bucket: bucket}, nil
}

// Bucket 返回 bucket 名称
func (c *Client) Bucket() string {
	return c.bucket
}

// EnsureBucket 确保 bucket 存在
func (c *Client) EnsureBucket(ctx context.Context) error {
	exists, err := c.mc.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := c.mc.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
		log.Printf("[minio] Created bucket: %s", c.bucket)
	}
	return nil
}

// List 列出前缀下的对象，附带用户元数据中的所有者
func (c *Client) List(ctx context.Context, prefix string) ([]Object, error) {
	var objects []Object
	for info := range c.mc.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{
		Prefix:       prefix,
		Recursive:    true,
		WithMetadata: true,
	}) {
		if info.Err != nil {
			return nil, fmt.Errorf("list %s: %w", prefix, info.Err)
		}
		if strings.HasSuffix(info.Key, "/") {
			continue
		}
		objects = append(objects, Object{
			Key:   info.Key,
			Size:  info.Size,
			Owner: ownerFromMetadata(info.UserMetadata),
		})
	}
	return objects, nil
}

// ownerFromMetadata 兼容 MinIO 返回的两种键形式
func ownerFromMetadata(meta map[string]string) string {
	for k, v := range meta {
		switch strings.ToLower(k) {
		case "owner", "x-amz-meta-owner":
			return v
		}
	}
	return ""
}
