// Package storage resolves catalogue media locators of the form
// s3://bucket/key into time-limited presigned URLs. The service itself
// never uploads; upload tooling owns the write side of the bucket.
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const defaultURLExpiry = 4 * time.Hour

type Config struct {
	Endpoint       string
	PublicEndpoint string // used for presigned URLs; falls back to Endpoint if empty
	AccessKey      string
	SecretKey      string
	Region         string
	URLExpiry      time.Duration
}

type Storage struct {
	presigner *s3.PresignClient
	expiry    time.Duration
}

func New(ctx context.Context, cfg Config) (*Storage, error) {
	if cfg.Region == "" {
		cfg.Region = "eu-central-1"
	}
	if cfg.URLExpiry <= 0 {
		cfg.URLExpiry = defaultURLExpiry
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	endpoint := cfg.Endpoint
	if cfg.PublicEndpoint != "" {
		endpoint = cfg.PublicEndpoint
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = true
	})

	return &Storage{
		presigner: s3.NewPresignClient(client),
		expiry:    cfg.URLExpiry,
	}, nil
}

// ResolvePlaybackURL presigns a GET for s3:// locators. Any other locator
// is already a playable URL and passes through unchanged.
func (s *Storage) ResolvePlaybackURL(ctx context.Context, locator string) (string, error) {
	bucket, key, ok := SplitLocator(locator)
	if !ok {
		return locator, nil
	}

	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.expiry))
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", locator, err)
	}
	return req.URL, nil
}

// SplitLocator parses s3://bucket/key. ok is false for anything else,
// including s3 locators with no key.
func SplitLocator(locator string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(locator, "s3://")
	if !found {
		return "", "", false
	}
	bucket, key, found = strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}
