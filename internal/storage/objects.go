// Package storage is the object-store adapter. Evidence images, the report
// logo and compiled report artifacts share one S3-compatible bucket.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	appcfg "forensia/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type ObjectStore struct {
	client         *s3.Client
	bucket         string
	publicEndpoint string
}

// New connects to the configured bucket.
func New(ctx context.Context, cfg appcfg.Objects) (*ObjectStore, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(
		ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithBaseEndpoint(cfg.Endpoint),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("load object store config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})
	return &ObjectStore{
		client:         client,
		bucket:         cfg.Bucket,
		publicEndpoint: cfg.PublicEndpoint,
	}, nil
}

// Get fetches an object by key.
func (o *ObjectStore) Get(ctx context.Context, key string) ([]byte, error) {
	result, err := o.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(o.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	defer result.Body.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, result.Body); err != nil {
		return nil, fmt.Errorf("read object %s: %w", key, err)
	}
	return buf.Bytes(), nil
}

// PutUpload stores an uploaded file under prefix with the given id, keeping
// the original extension for content-type detection. Returns the stored key.
func (o *ObjectStore) PutUpload(ctx context.Context, prefix, filename, id string, file io.Reader) (string, error) {
	ext := strings.TrimPrefix(filepath.Ext(filename), ".")
	key := fmt.Sprintf("%s/%s.%s", prefix, id, ext)
	return key, o.put(ctx, key, mime.TypeByExtension("."+ext), file)
}

// Put stores raw bytes at an exact key.
func (o *ObjectStore) Put(ctx context.Context, key, contentType string, data []byte) error {
	return o.put(ctx, key, contentType, bytes.NewReader(data))
}

func (o *ObjectStore) put(ctx context.Context, key, contentType string, body io.Reader) error {
	_, err := o.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(o.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

// Delete removes an object by key.
func (o *ObjectStore) Delete(ctx context.Context, key string) error {
	_, err := o.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(o.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

// PresignDownload returns a time-limited download URL for key. When a public
// endpoint is configured, the URL is signed against it so the signature
// matches the Host header the client sends.
func (o *ObjectStore) PresignDownload(ctx context.Context, key string) (string, error) {
	client := o.client
	if o.publicEndpoint != "" {
		publicURL, err := url.Parse(o.publicEndpoint)
		if err != nil || publicURL.Scheme == "" || publicURL.Host == "" {
			return "", fmt.Errorf("invalid public endpoint: %s", o.publicEndpoint)
		}
		client = s3.NewFromConfig(
			aws.Config{
				Region:      o.client.Options().Region,
				Credentials: o.client.Options().Credentials,
				HTTPClient:  o.client.Options().HTTPClient,
			},
			func(opt *s3.Options) {
				opt.BaseEndpoint = aws.String(fmt.Sprintf("%s://%s", publicURL.Scheme, publicURL.Host))
				opt.UsePathStyle = true
			},
		)
	}

	presigner := s3.NewPresignClient(client)
	out, err := presigner.PresignGetObject(
		ctx,
		&s3.GetObjectInput{
			Bucket: aws.String(o.bucket),
			Key:    aws.String(key),
		},
		s3.WithPresignExpires(15*time.Minute),
	)
	if err != nil {
		return "", fmt.Errorf("presign download for %s: %w", key, err)
	}
	return out.URL, nil
}
