package service

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// 定稿图片内容不变，URL 可以永久缓存
const assetCacheControl = "public, max-age=31536000, immutable"

// AssetBackend 定稿图片的持久化后端
type AssetBackend interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (url string, err error)
}

// StorageConfig Provider: "s3" | "local"
type StorageConfig struct {
	Provider  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	Endpoint  string // S3 兼容端点；local 时为访问前缀
	CDNDomain string
	BasePath  string
}

// ==================== StorageService ====================

// StorageService 发布定稿图片，实现 AssetStore
type StorageService struct {
	backend  AssetBackend
	basePath string
	now      func() time.Time
}

var _ AssetStore = (*StorageService)(nil)

// NewStorageService 按配置选择后端
func NewStorageService(cfg *StorageConfig) (*StorageService, error) {
	var (
		backend AssetBackend
		err     error
	)
	switch cfg.Provider {
	case "s3":
		backend, err = NewS3Backend(cfg)
	case "local":
		backend = NewLocalBackend(afero.NewOsFs(), cfg.BasePath, cfg.Endpoint)
	default:
		return nil, fmt.Errorf("unsupported storage provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	// local 后端自己带根目录，key 不再加前缀
	basePath := cfg.BasePath
	if cfg.Provider == "local" {
		basePath = ""
	}
	return NewStorageServiceWithBackend(backend, basePath), nil
}

func NewStorageServiceWithBackend(backend AssetBackend, basePath string) *StorageService {
	return &StorageService{
		backend:  backend,
		basePath: strings.Trim(basePath, "/"),
		now:      time.Now,
	}
}

// Upload 生成对象 key 后写入后端；contentType 为空时按内容识别
func (s *StorageService) Upload(ctx context.Context, data []byte, filename string, contentType string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("upload %s: empty image", filename)
	}
	if contentType == "" {
		contentType = mimetype.Detect(data).String()
	}
	return s.backend.Put(ctx, s.objectKey(filename), data, contentType)
}

// objectKey <base>/variants/2006/01/02/<stem>-<uuid>.<ext>
func (s *StorageService) objectKey(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = ".jpg"
	}
	stem := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	name := uuid.New().String() + ext
	if stem != "" && stem != "." {
		name = stem + "-" + name
	}
	return path.Join(s.basePath, "variants", s.now().UTC().Format("2006/01/02"), name)
}

// ==================== S3 ====================

type S3Backend struct {
	client    *s3.Client
	bucket    string
	urlPrefix string
}

func NewS3Backend(cfg *StorageConfig) (*S3Backend, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	// 未配置静态密钥时走默认凭证链（环境变量 / IAM Role）
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Backend{
		client:    client,
		bucket:    cfg.Bucket,
		urlPrefix: s3URLPrefix(cfg.Bucket, cfg.Region, endpoint, cfg.CDNDomain),
	}, nil
}

func (b *S3Backend) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(b.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
		CacheControl:  aws.String(assetCacheControl),
	})
	if err != nil {
		return "", fmt.Errorf("put s3://%s/%s: %w", b.bucket, key, err)
	}
	return b.urlPrefix + key, nil
}

// s3URLPrefix CDN > 自定义端点（path style）> AWS 虚拟主机域名
func s3URLPrefix(bucket, region, endpoint, cdnDomain string) string {
	if cdnDomain != "" {
		return "https://" + strings.Trim(cdnDomain, "/") + "/"
	}
	if endpoint != "" {
		return endpoint + "/" + bucket + "/"
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/", bucket, region)
}

// ==================== 本地目录（开发环境） ====================

type LocalBackend struct {
	fs      afero.Fs
	root    string
	baseURL string
}

func NewLocalBackend(fs afero.Fs, root, baseURL string) *LocalBackend {
	if root == "" {
		root = "./uploads"
	}
	if baseURL == "" {
		baseURL = "http://localhost:8080/uploads"
	}
	return &LocalBackend{fs: fs, root: root, baseURL: strings.TrimRight(baseURL, "/")}
}

func (b *LocalBackend) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	full := filepath.Join(b.root, filepath.FromSlash(key))
	if err := b.fs.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}
	if err := afero.WriteFile(b.fs, full, data, 0o644); err != nil {
		return "", err
	}
	return b.baseURL + "/" + key, nil
}
