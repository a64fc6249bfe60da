// Package sthree provides a storage.Store on an AWS S3 bucket (or any S3-compatible endpoint).
//
// It is intended as the remote backend of the annex: objects are written once and read many times.
package sthree

import (
	"context"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/oneconcern/configsvc/pkg/errors"
	"github.com/oneconcern/configsvc/pkg/storage"
	"github.com/oneconcern/configsvc/pkg/storage/status"
)

// PageSize is the maximum number of keys requested per listing call
const PageSize = 1000

// Option configures the S3 store
type Option func(*s3FS)

// Bucket sets the target bucket
func Bucket(bucket string) Option {
	return func(fs *s3FS) {
		fs.bucket = bucket
	}
}

// AWSConfig sets the AWS client configuration (region, endpoint, credentials)
func AWSConfig(cfg *aws.Config) Option {
	return func(fs *s3FS) {
		fs.awsConfig = cfg
	}
}

// Prefix namespaces all keys under some root
func Prefix(prefix string) Option {
	return func(fs *s3FS) {
		fs.prefix = prefix
	}
}

// New S3 store
func New(option Option, options ...Option) (storage.Store, error) {
	fs := &s3FS{awsConfig: aws.NewConfig()}
	option(fs)
	for _, apply := range options {
		apply(fs)
	}
	if fs.bucket == "" {
		return nil, status.ErrInvalidResource.WrapMessage("a bucket is required")
	}

	sess, err := session.NewSession(fs.awsConfig)
	if err != nil {
		return nil, err
	}
	fs.s3 = s3.New(sess)
	fs.uploader = s3manager.NewUploaderWithClient(fs.s3)
	return fs, nil
}

type s3FS struct {
	bucket    string
	prefix    string
	awsConfig *aws.Config
	s3        *s3.S3
	uploader  *s3manager.Uploader
}

func (s *s3FS) key(key string) string {
	return s.prefix + key
}

func (s *s3FS) Has(ctx context.Context, key string) (bool, error) {
	_, err := s.s3.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(key)),
	})
	if err != nil {
		err = toSentinelErrors(err)
		if errors.Is(err, status.ErrNotExists) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *s3FS) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.s3.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(key)),
	})
	if err != nil {
		return nil, toSentinelErrors(err)
	}
	return obj.Body, nil
}

// Put uploads an object.
//
// The S3 API has no conditional write: NoOverWrite is enforced by a HEAD request,
// which is sufficient for content-addressed objects since concurrent writers upload identical bytes.
func (s *s3FS) Put(ctx context.Context, key string, rdr io.Reader, exclusive storage.NewKey) error {
	if exclusive {
		has, err := s.Has(ctx, key)
		if err != nil {
			return err
		}
		if has {
			return status.ErrExists.WrapMessage("key %q", key)
		}
	}
	_, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(key)),
		Body:   rdr,
	})
	return toSentinelErrors(err)
}

func (s *s3FS) Delete(ctx context.Context, key string) error {
	_, err := s.s3.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(key)),
	})
	return toSentinelErrors(err)
}

func (s *s3FS) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	eachPage := func(page *s3.ListObjectsV2Output, more bool) bool {
		for _, obj := range page.Contents {
			if key := s.unprefixed(aws.StringValue(obj.Key)); key != "" {
				keys = append(keys, key)
			}
		}
		return true
	}
	params := &s3.ListObjectsV2Input{Bucket: aws.String(s.bucket), Prefix: aws.String(s.prefix)}

	if err := s.s3.ListObjectsV2PagesWithContext(ctx, params, eachPage); err != nil {
		return nil, toSentinelErrors(err)
	}
	return keys, nil
}

func (s *s3FS) KeysPrefix(ctx context.Context, token, prefix, delimiter string, count int) ([]string, string, error) {
	if count <= 0 || count > PageSize {
		count = PageSize
	}
	params := &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		Prefix:  aws.String(s.key(prefix)),
		MaxKeys: aws.Int64(int64(count)),
	}
	if delimiter != "" {
		params.Delimiter = aws.String(delimiter)
	}
	if token != "" {
		params.StartAfter = aws.String(s.key(token))
	}

	page, err := s.s3.ListObjectsV2WithContext(ctx, params)
	if err != nil {
		return nil, "", toSentinelErrors(err)
	}

	keys := make([]string, 0, len(page.Contents)+len(page.CommonPrefixes))
	for _, obj := range page.Contents {
		keys = append(keys, s.unprefixed(aws.StringValue(obj.Key)))
	}
	for _, common := range page.CommonPrefixes {
		keys = append(keys, s.unprefixed(aws.StringValue(common.Prefix)))
	}

	var next string
	if aws.BoolValue(page.IsTruncated) && len(keys) > 0 {
		next = keys[len(keys)-1]
	}
	return keys, next, nil
}

func (s *s3FS) unprefixed(key string) string {
	if len(key) < len(s.prefix) {
		return ""
	}
	return key[len(s.prefix):]
}

func (s *s3FS) Clear(ctx context.Context) error {
	params := &s3.ListObjectsInput{Bucket: aws.String(s.bucket), Prefix: aws.String(s.prefix)}
	del := s3manager.NewBatchDeleteWithClient(s.s3)
	return toSentinelErrors(del.Delete(ctx, s3manager.NewDeleteListIterator(s.s3, params)))
}

func (s *s3FS) String() string {
	return "s3@" + s.bucket
}
