package staging

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/diillson/energy-usage-dashboard-go/internal/domain/entity"
	"github.com/diillson/energy-usage-dashboard-go/internal/domain/repository"
	"github.com/diillson/energy-usage-dashboard-go/internal/shared/types"
)

// S3StagingRepository envia o arquivo direto para o bucket com credenciais AWS,
// usando a referência de objeto (fileUrl) devolvida pelo presign.
type S3StagingRepository struct {
	uploader *manager.Uploader
	log      zerolog.Logger
}

// NewS3StagingRepository carrega a configuração AWS (perfil, região, chaves
// estáticas ou cadeia padrão) e monta o uploader multipart.
func NewS3StagingRepository(ctx context.Context, cfg types.StagingConfig, log zerolog.Logger) (repository.StagingRepository, error) {
	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(cfg.Profile))
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("error loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &S3StagingRepository{
		uploader: manager.NewUploader(client),
		log:      log.With().Str("adapter", "staging-s3").Logger(),
	}, nil
}

func (r *S3StagingRepository) Put(ctx context.Context, target entity.StagingTarget, data []byte, contentType string) error {
	bucket, key, err := ParseObjectRef(target.ObjectRef)
	if err != nil {
		return &types.TransportError{Stage: string(entity.StageStage), Op: "s3 PutObject", Err: err}
	}

	out, err := r.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return &types.TransportError{Stage: string(entity.StageStage), Op: "s3 PutObject", Err: err}
	}

	r.log.Debug().Str("bucket", bucket).Str("key", key).Str("location", out.Location).Msg("file staged")
	return nil
}

// ParseObjectRef extracts bucket and key from an object reference. Accepted
// forms: s3://bucket/key, https://bucket.s3[.region].amazonaws.com/key and
// path-style https://s3[.region].amazonaws.com/bucket/key.
func ParseObjectRef(ref string) (bucket, key string, err error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", "", fmt.Errorf("invalid object reference %q: %w", ref, err)
	}
	path := strings.TrimPrefix(u.Path, "/")

	switch {
	case u.Scheme == "s3":
		bucket, key = u.Host, path
	case strings.Contains(u.Host, ".s3.") || strings.Contains(u.Host, ".s3-"):
		idx := strings.Index(u.Host, ".s3")
		bucket, key = u.Host[:idx], path
	case strings.HasPrefix(u.Host, "s3.") || strings.HasPrefix(u.Host, "s3-"):
		parts := strings.SplitN(path, "/", 2)
		if len(parts) == 2 {
			bucket, key = parts[0], parts[1]
		}
	}

	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("object reference %q does not name a bucket and key", ref)
	}
	return bucket, key, nil
}
