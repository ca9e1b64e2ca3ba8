package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"releasegate/pkg/registry"
	"releasegate/pkg/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// DefaultKey 是注册表对象在 bucket 中的默认 Key
const DefaultKey = "gate.properties"

// Adapter 实现了 registry.Backend 接口
// 整个注册表作为一个 properties 对象存放，与本地文件格式完全一致
type Adapter struct {
	client *s3.Client
	bucket string
	key    string
}

// Config 用于初始化 Adapter
type Config struct {
	Endpoint        string
	Region          string
	Bucket          string
	Key             string
	AccessKeyID     string
	SecretAccessKey string
}

// NewAdapter 初始化 S3 客户端
func NewAdapter(ctx context.Context, cfg Config) (*Adapter, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: s3 bucket is required", types.ErrInvalidInput)
	}
	if cfg.Key == "" {
		cfg.Key = DefaultKey
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	// 未配置静态凭证时走默认凭证链 (环境变量、IAM Role 等)
	if cfg.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.SecretAccessKey, "",
		)))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		// MinIO 等兼容实现需要覆盖 Endpoint 并使用 Path Style
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Adapter{
		client: client,
		bucket: cfg.Bucket,
		key:    cfg.Key,
	}, nil
}

func (a *Adapter) Name() string { return "s3://" + a.bucket + "/" + a.key }

// Load 下载注册表对象，对象不存在视为空注册表
func (a *Adapter) Load(ctx context.Context) (map[string]types.Digest, error) {
	resp, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(a.key),
	})
	if err != nil {
		if isNotFound(err) {
			return map[string]types.Digest{}, nil
		}
		return nil, types.IOErrorf(err, "s3 get %s", a.Name())
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, types.IOErrorf(err, "s3 read %s", a.Name())
	}
	return registry.Decode(data)
}

// Store 上传整个注册表 (单次 PutObject 本身就是原子覆盖)
func (a *Adapter) Store(ctx context.Context, entries map[string]types.Digest) error {
	data, err := registry.Encode(entries)
	if err != nil {
		return err
	}

	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(a.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("text/x-java-properties"),
	})
	if err != nil {
		return types.IOErrorf(err, "s3 put %s", a.Name())
	}
	return nil
}

func isNotFound(err error) bool {
	var noKey *s3types.NoSuchKey
	var notFound *s3types.NotFound
	if errors.As(err, &noKey) || errors.As(err, &notFound) {
		return true
	}
	// 兼容性：某些 S3 实现返回 generic 404
	return strings.Contains(err.Error(), "StatusCode: 404")
}
