package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/popchain/popchain-core/pkg/repo"
)

type s3API interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var _ Store = (*S3Store)(nil)

// S3Store implements Store using S3 or an S3 compatible service.
type S3Store struct {
	client        s3API
	bucket        string
	region        string
	endpoint      string
	prefix        string
	publicBaseURL string
	logger        logrus.FieldLogger
}

func NewS3Store(ctx context.Context, cfg repo.ObjectStore, logger logrus.FieldLogger) (*S3Store, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, errors.Wrap(err, "load aws config")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			// path style for MinIO and LocalStack
			o.UsePathStyle = true
		}
	})
	return newS3Store(client, cfg, logger), nil
}

func newS3Store(client s3API, cfg repo.ObjectStore, logger logrus.FieldLogger) *S3Store {
	return &S3Store{
		client:        client,
		bucket:        cfg.Bucket,
		region:        cfg.Region,
		endpoint:      strings.TrimRight(cfg.Endpoint, "/"),
		prefix:        cfg.Prefix,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		logger:        logger,
	}
}

func (s *S3Store) key(h Handle) string {
	return s.prefix + string(h)
}

func (s *S3Store) Upload(ctx context.Context, data []byte, contentType string) (Handle, error) {
	if len(data) == 0 {
		return "", errors.New("empty upload")
	}
	h := HandleFor(data, contentType)
	key := s.key(h)

	exists, err := s.exists(ctx, key)
	if err != nil {
		return "", err
	}
	if exists {
		s.logger.WithField("key", key).Debug("Object already stored")
		return h, nil
	}

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", errors.Wrapf(err, "s3 put %s", key)
	}
	s.logger.WithFields(logrus.Fields{"key": key, "size": len(data)}).Info("Uploaded object")
	return h, nil
}

// ResolvePublicURL returns false until the object is visible in the bucket.
func (s *S3Store) ResolvePublicURL(ctx context.Context, h Handle) (string, bool, error) {
	key := s.key(h)
	exists, err := s.exists(ctx, key)
	if err != nil || !exists {
		return "", false, err
	}
	return s.publicURL(key), true, nil
}

func (s *S3Store) publicURL(key string) string {
	switch {
	case s.publicBaseURL != "":
		return s.publicBaseURL + "/" + key
	case s.endpoint != "":
		return fmt.Sprintf("%s/%s/%s", s.endpoint, s.bucket, key)
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
	}
}

func (s *S3Store) exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &notFound) || errors.As(err, &noSuchKey) {
		return false, nil
	}
	return false, errors.Wrapf(err, "s3 head %s", key)
}
