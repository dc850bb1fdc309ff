package source

import (
	"context"
	"errors"
	"fmt"

	"finance-analytics/internal/records"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ObjectGetter is the subset of the S3 client used by S3.
type ObjectGetter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3 reads one raw XLSX workbook per kind from a bucket. Object keys are
// "<prefix><file>.xlsx".
type S3 struct {
	client ObjectGetter
	bucket string
	prefix string
}

// NewS3 returns a source reading workbooks from bucket under prefix.
func NewS3(client ObjectGetter, bucket, prefix string) *S3 {
	return &S3{client: client, bucket: bucket, prefix: prefix}
}

func (s *S3) key(kind records.Kind) string {
	return s.prefix + records.SchemaFor(kind).File + ".xlsx"
}

func (s *S3) Read(ctx context.Context, kind records.Kind) (*records.Table, error) {
	key := s.key(kind)
	obj, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("%s: s3://%s/%s: %w", kind, s.bucket, key, ErrNotFound)
		}
		return nil, fmt.Errorf("get s3://%s/%s: %w", s.bucket, key, err)
	}
	defer obj.Body.Close()

	t, err := ReadWorkbook(kind, obj.Body)
	if err != nil {
		return nil, fmt.Errorf("s3://%s/%s: %w", s.bucket, key, err)
	}
	return t, nil
}

func (s *S3) Location(kind records.Kind) string {
	return "s3://" + s.bucket + "/" + s.key(kind)
}
