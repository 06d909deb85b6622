// Package asset はリソースの画像ファイル名から表示用URLを組み立てる。
// 画像はS3バケットに置かれ、公開URLまたは署名付きGET URLで参照する。
package asset

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Resolver は画像の表示用URLを返す。
type Resolver interface {
	URL(ctx context.Context, folder, filename string) string
}

// PublicResolver は公開バケットのURLを組み立てる。
type PublicResolver struct {
	baseURL string
}

// NewPublicResolver はPublicResolverを生成する。
func NewPublicResolver(baseURL string) *PublicResolver {
	return &PublicResolver{baseURL: strings.TrimRight(baseURL, "/")}
}

// URL は baseURL/folder/filename を返す。
// filenameが既に http(s) の絶対URLの場合はそのまま返し、空の場合は空文字列を返す。
func (r *PublicResolver) URL(_ context.Context, folder, filename string) string {
	if filename == "" {
		return ""
	}
	if isAbsolute(filename) {
		return filename
	}
	return r.baseURL + "/" + objectKey(folder, filename, url.PathEscape)
}

// Presigner は署名付きGETリクエストを生成する。*s3.PresignClientが実装する。
type Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// PresignResolver は非公開バケットの署名付きGET URLを生成する。
// 署名に失敗した場合は公開URLにフォールバックする。
type PresignResolver struct {
	presigner Presigner
	bucket    string
	ttl       time.Duration
	fallback  *PublicResolver
}

// NewPresignResolver はPresignResolverを生成する。
func NewPresignResolver(presigner Presigner, bucket string, ttl time.Duration, fallback *PublicResolver) *PresignResolver {
	return &PresignResolver{
		presigner: presigner,
		bucket:    bucket,
		ttl:       ttl,
		fallback:  fallback,
	}
}

// URL は folder/filename の署名付きURLを返す。
func (r *PresignResolver) URL(ctx context.Context, folder, filename string) string {
	if filename == "" {
		return ""
	}
	if isAbsolute(filename) {
		return filename
	}

	key := objectKey(folder, filename, nil)
	req, err := r.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(r.ttl))
	if err != nil {
		slog.WarnContext(ctx, "failed to presign asset url",
			slog.String("bucket", r.bucket),
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return r.fallback.URL(ctx, folder, filename)
	}
	return req.URL
}

// S3Config はS3クライアントの接続設定。
type S3Config struct {
	Region          string
	Endpoint        string // MinIOなどS3互換ストレージのエンドポイント（空ならAWS）
	AccessKeyID     string // 空の場合はAWS SDKの標準の認証情報チェーンを使う
	SecretAccessKey string
}

// NewS3Presigner はS3の署名付きURLクライアントを生成する。
func NewS3Presigner(ctx context.Context, cfg S3Config) (*s3.PresignClient, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return s3.NewPresignClient(client), nil
}

func isAbsolute(filename string) bool {
	return strings.HasPrefix(filename, "https://") || strings.HasPrefix(filename, "http://")
}

func objectKey(folder, filename string, escape func(string) string) string {
	if escape != nil {
		filename = escape(filename)
	}
	folder = strings.Trim(folder, "/")
	if folder == "" {
		return filename
	}
	return folder + "/" + filename
}
