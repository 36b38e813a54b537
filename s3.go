// Copyright (C) The GRAPE Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package grape

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Environment variables used to configure S3 access, in addition to
// the standard AWS credential chain:
//
//	GRAPE_S3_REGION=<region> (default us-east-1)
//	GRAPE_S3_ENDPOINT=<url> (optional, e.g. MinIO)
//	GRAPE_S3_PATH_STYLE=true|false
var (
	s3Client    *s3.Client
	s3ClientErr error
	s3Once      sync.Once
)

func isS3URI(fnm string) bool {
	return strings.HasPrefix(fnm, "s3://")
}

// splitS3URI splits "s3://bucket/key" into bucket and key.
func splitS3URI(uri string) (bucket, key string, err error) {
	rest := strings.TrimPrefix(uri, "s3://")
	slash := strings.IndexByte(rest, '/')
	if slash <= 0 || slash == len(rest)-1 {
		return "", "", fmt.Errorf("%w: invalid s3 URI %q (want s3://bucket/key)", ErrConfiguration, uri)
	}
	return rest[:slash], rest[slash+1:], nil
}

func getS3Client(ctx context.Context) (*s3.Client, error) {
	s3Once.Do(func() {
		region := os.Getenv("GRAPE_S3_REGION")
		if region == "" {
			region = "us-east-1"
		}
		awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
		if err != nil {
			s3ClientErr = err
			return
		}
		endpoint := os.Getenv("GRAPE_S3_ENDPOINT")
		pathStyle := strings.EqualFold(os.Getenv("GRAPE_S3_PATH_STYLE"), "true")
		s3Client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.UsePathStyle = pathStyle
			if endpoint != "" {
				o.BaseEndpoint = aws.String(endpoint)
			}
		})
	})
	return s3Client, s3ClientErr
}

func openS3(uri string) (io.ReadCloser, error) {
	bucket, key, err := splitS3URI(uri)
	if err != nil {
		return nil, err
	}
	ctx := context.Background()
	client, err := getS3Client(ctx)
	if err != nil {
		return nil, err
	}
	out, err := client.GetObject(ctx, &s3.GetObjectInput{Bucket: &bucket, Key: &key})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", uri, err)
	}
	return out.Body, nil
}

// s3Writer buffers an object in memory and uploads it on Close,
// unless Abort was called first.
type s3Writer struct {
	bytes.Buffer
	uri    string
	closed bool
}

func createS3(uri string) (io.WriteCloser, error) {
	if _, _, err := splitS3URI(uri); err != nil {
		return nil, err
	}
	return &s3Writer{uri: uri}, nil
}

// Abort discards the buffered data. A subsequent Close does not
// upload anything.
func (w *s3Writer) Abort() {
	w.closed = true
	w.Reset()
}

func (w *s3Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	bucket, key, err := splitS3URI(w.uri)
	if err != nil {
		return err
	}
	ctx := context.Background()
	client, err := getS3Client(ctx)
	if err != nil {
		return err
	}
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
		Body:   bytes.NewReader(w.Bytes()),
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", w.uri, err)
	}
	return nil
}
