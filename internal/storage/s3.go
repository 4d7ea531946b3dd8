// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package storage archives generated documents in S3-compatible object
// storage. It wraps the AWS SDK v2 and is configured for path-style access
// (required by CEPH/Hetzner/MinIO).
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"lexdesk/internal/models"
)

// documentContentType is stored with every archived document.
const documentContentType = "text/markdown; charset=utf-8"

// Archive stores execution documents in a single bucket.
type Archive struct {
	s3        *s3.Client
	presigner *s3.PresignClient
	bucket    string
}

// New creates an archive client. Returns (nil, nil) if endpoint or
// credentials are empty, allowing the app to start without storage.
func New(endpoint, region, accessKey, secretKey, bucket string) (*Archive, error) {
	if endpoint == "" || accessKey == "" || secretKey == "" {
		return nil, nil
	}
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	s3Client := s3.New(s3.Options{
		Region:       region,
		BaseEndpoint: aws.String(strings.TrimRight(endpoint, "/")),
		Credentials:  credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		UsePathStyle: true,
	})

	return &Archive{
		s3:        s3Client,
		presigner: s3.NewPresignClient(s3Client),
		bucket:    bucket,
	}, nil
}

// DocumentKey returns the object key of an execution's document.
func DocumentKey(executionID uuid.UUID) string {
	return "executions/" + executionID.String() + ".md"
}

// ArchiveDocument uploads the generated content of rec. The object carries
// the template ID and sequence number as metadata.
func (a *Archive) ArchiveDocument(ctx context.Context, rec *models.ExecutionRecord) error {
	key := DocumentKey(rec.ID)
	body := []byte(rec.GeneratedContent)
	_, err := a.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String(documentContentType),
		Metadata: map[string]string{
			"template-id": rec.TemplateID.String(),
			"sequence":    strconv.FormatInt(rec.Sequence, 10),
		},
	})
	if err != nil {
		return fmt.Errorf("s3 upload %s/%s: %w", a.bucket, key, err)
	}
	return nil
}

// FetchDocument downloads an archived document.
func (a *Archive) FetchDocument(ctx context.Context, executionID uuid.UUID) ([]byte, error) {
	key := DocumentKey(executionID)
	output, err := a.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 download %s/%s: %w", a.bucket, key, err)
	}
	defer output.Body.Close()
	data, err := io.ReadAll(output.Body)
	if err != nil {
		return nil, fmt.Errorf("s3 read body %s/%s: %w", a.bucket, key, err)
	}
	return data, nil
}

// PresignedURL generates a pre-signed GET URL for an archived document.
// The URL is valid for the specified duration (S3 caps it at 7 days).
func (a *Archive) PresignedURL(ctx context.Context, executionID uuid.UUID, expires time.Duration) (string, error) {
	key := DocumentKey(executionID)
	req, err := a.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		return "", fmt.Errorf("s3 presign %s/%s: %w", a.bucket, key, err)
	}
	return req.URL, nil
}

// Bucket returns the archive bucket name.
func (a *Archive) Bucket() string {
	return a.bucket
}
