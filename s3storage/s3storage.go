// Copyright (c) 2026, Eugene Ponizovsky, <ponizovsky@gmail.com>. All rights
// reserved. Use of this source code is governed by a MIT License that can
// be found in the LICENSE file.

/*
Package s3storage is a configuration file storage backed by Amazon S3. File
names are S3 URIs:

	s3://my-bucket/config/prod.yaml

Use it with yamlconf to read settings from a bucket and write them back:

	awsCfg, err := s3storage.LoadConfig(ctx, s3storage.WithRegion("eu-west-1"))
	...
	settings, err := yamlconf.New(ctx,
		yamlconf.Options{
			Path:    "s3://my-bucket/config/prod.yaml",
			Storage: s3storage.NewFromConfig(awsCfg),
		},
	)
*/
package s3storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

const (
	errPref     = "s3storage"
	uriScheme   = "s3://"
	contentType = "application/yaml"
)

// API is the subset of the S3 client used by the storage.
type API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput,
		optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput,
		optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput,
		optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// Storage type represents S3 storage instance.
type Storage struct {
	client API
}

type options struct {
	profile string
	region  string
}

// Option customizes loading of AWS configuration.
type Option func(*options)

// WithProfile sets the shared config profile.
func WithProfile(profile string) Option {
	return func(o *options) { o.profile = profile }
}

// WithRegion sets the region.
func WithRegion(region string) Option {
	return func(o *options) { o.region = region }
}

// LoadConfig method loads AWS configuration. Without options it uses the
// default chain (environment, shared config files, IMDS).
func LoadConfig(ctx context.Context, opts ...Option) (aws.Config, error) {
	var o options

	for _, opt := range opts {
		opt(&o)
	}

	var loadOpts []func(*config.LoadOptions) error

	if o.profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(o.profile))
	}
	if o.region != "" {
		loadOpts = append(loadOpts, config.WithRegion(o.region))
	}

	return config.LoadDefaultConfig(ctx, loadOpts...)
}

// New method creates new storage with the given S3 client.
func New(client API) *Storage {
	return &Storage{
		client: client,
	}
}

// NewFromConfig method creates new storage with a S3 client built from the AWS
// configuration.
func NewFromConfig(cfg aws.Config, optFns ...func(*s3.Options)) *Storage {
	return New(s3.NewFromConfig(cfg, optFns...))
}

// ParseURI method splits S3 URI to bucket name and object key.
func ParseURI(uri string) (bucket, key string, err error) {
	if !strings.HasPrefix(uri, uriScheme) {
		return "", "", fmt.Errorf("%s: URI must start with %s: %s", errPref,
			uriScheme, uri)
	}

	tokens := strings.SplitN(strings.TrimPrefix(uri, uriScheme), "/", 2)

	if len(tokens) < 2 || tokens[0] == "" || tokens[1] == "" {
		return "", "", fmt.Errorf("%s: missing bucket or key in URI: %s", errPref,
			uri)
	}

	return tokens[0], tokens[1], nil
}

// Open method fetches the object for reading.
func (s *Storage) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	bucket, key, err := ParseURI(name)

	if err != nil {
		return nil, err
	}

	out, err := s.client.GetObject(ctx,
		&s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		},
	)

	if err != nil {
		return nil, err
	}

	return out.Body, nil
}

// Create method returns a writer that uploads the object on Close.
func (s *Storage) Create(ctx context.Context, name string) (io.WriteCloser, error) {
	bucket, key, err := ParseURI(name)

	if err != nil {
		return nil, err
	}

	return &objectWriter{
		ctx:    ctx,
		client: s.client,
		bucket: bucket,
		key:    key,
	}, nil
}

// Exists method reports whether the object exists.
func (s *Storage) Exists(ctx context.Context, name string) (bool, error) {
	bucket, key, err := ParseURI(name)

	if err != nil {
		return false, err
	}

	_, err = s.client.HeadObject(ctx,
		&s3.HeadObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		},
	)

	if err != nil {
		if isNotFound(err) {
			return false, nil
		}

		return false, err
	}

	return true, nil
}

func isNotFound(err error) bool {
	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey

	if errors.As(err, &notFound) || errors.As(err, &noSuchKey) {
		return true
	}

	var apiErr smithy.APIError

	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}

	return false
}

type objectWriter struct {
	ctx    context.Context
	client API
	bucket string
	key    string
	buf    bytes.Buffer
	closed bool
}

func (w *objectWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, fmt.Errorf("%s: write to closed object writer", errPref)
	}

	return w.buf.Write(p)
}

func (w *objectWriter) Close() error {
	if w.closed {
		return nil
	}

	w.closed = true

	_, err := w.client.PutObject(w.ctx,
		&s3.PutObjectInput{
			Bucket:      aws.String(w.bucket),
			Key:         aws.String(w.key),
			Body:        bytes.NewReader(w.buf.Bytes()),
			ContentType: aws.String(contentType),
		},
	)

	return err
}
