package blobstore

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	smithy "github.com/aws/smithy-go"
)

// S3 is a Store backed by an S3-compatible object store. Grounded in the
// pack's other_examples S3 pipeline (aws-sdk-go-v2/service/s3, aws.String,
// a getObjectWithRetry-style helper): this engine uses the same client and
// error-classification idiom, just against summary/audience keys instead
// of market-data CSVs.
type S3 struct {
	client *s3.Client
	bucket string
}

// NewS3 wraps an already-configured s3.Client for bucket.
func NewS3(client *s3.Client, bucket string) *S3 {
	return &S3{client: client, bucket: bucket}
}

func (s *S3) List(ctx context.Context, keyPrefix string) (ListResult, error) {
	var keys []string
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(keyPrefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return ListResult{}, err
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	return ListResult{Keys: keys}, nil
}

func (s *S3) Get(ctx context.Context, key string, mode Mode) (Result, bool, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNoSuchKey(err) {
			return Result{}, false, nil
		}
		return Result{}, false, err
	}

	etag := strings.Trim(aws.ToString(out.ETag), `"`)
	switch mode {
	case Stream, StreamAndMeta:
		r := Result{Stream: out.Body}
		if mode == StreamAndMeta {
			r.ETag = etag
		}
		return r, true, nil
	default:
		defer out.Body.Close()
		body, err := io.ReadAll(out.Body)
		if err != nil {
			return Result{}, false, err
		}
		r := Result{Text: string(body)}
		if mode == TextAndMeta {
			r.ETag = etag
		}
		return r, true, nil
	}
}

func (s *S3) Put(ctx context.Context, key string, body []byte) (PutResult, error) {
	return s.putObject(ctx, key, strings.NewReader(string(body)), int64(len(body)))
}

func (s *S3) PutStream(ctx context.Context, key string, r io.Reader, contentLength int64) (PutResult, error) {
	return s.putObject(ctx, key, r, contentLength)
}

func (s *S3) putObject(ctx context.Context, key string, r io.Reader, contentLength int64) (PutResult, error) {
	out, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          r,
		ContentLength: aws.Int64(contentLength),
	})
	if err != nil {
		return PutResult{}, err
	}
	return PutResult{ETag: strings.Trim(aws.ToString(out.ETag), `"`)}, nil
}

// IsRetryableError treats timeouts, connection resets, and 5xx responses
// as retryable; auth failures, not-found, and precondition failures are
// durable.
func (s *S3) IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch",
			"PreconditionFailed", "NoSuchBucket":
			return false
		}
	}

	var respErr *smithyHTTPResponseError
	if asResponseError(err, &respErr) {
		return respErr.statusCode >= 500 || respErr.statusCode == http.StatusTooManyRequests
	}

	// Network-level faults surface as plain errors: connection resets wrap
	// syscall.ECONNRESET, timeouts wrap a net.Error with Timeout()==true,
	// and truncated bodies wrap io.ErrUnexpectedEOF.
	if errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return errors.Is(err, io.ErrUnexpectedEOF)
}

func isNoSuchKey(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode() == "NoSuchKey"
	}
	var nsk *types.NoSuchKey
	return errors.As(err, &nsk)
}

// smithyHTTPResponseError mirrors the subset of
// smithyhttp.ResponseError this package needs without importing the
// transport package directly, keeping the retry classifier easy to unit
// test with a fake error type.
type smithyHTTPResponseError struct {
	statusCode int
}

func (e *smithyHTTPResponseError) Error() string { return "http response error" }

func asResponseError(err error, target **smithyHTTPResponseError) bool {
	type responseError interface {
		HTTPStatusCode() int
	}
	var re responseError
	if errors.As(err, &re) {
		*target = &smithyHTTPResponseError{statusCode: re.HTTPStatusCode()}
		return true
	}
	return false
}
