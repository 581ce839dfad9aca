package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/debemdeboas/zenblog/internal/cache"
	"github.com/debemdeboas/zenblog/internal/model"
)

type s3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3 mirrors posts as objects in an S3 compatible bucket. The target
// repository is the bucket and the token is "ACCESS_KEY_ID:SECRET". Object
// ETags are the version tokens and writes are conditional on them.
type S3 struct {
	endpoint string
	region   string

	clients *cache.Cache[string, s3API]
	dial    func(ctx context.Context, target Target) (s3API, error)
}

var _ Mirror = (*S3)(nil)

// NewS3 builds a mirror for endpoint. An empty endpoint means AWS itself.
func NewS3(endpoint, region string) *S3 {
	m := &S3{
		endpoint: endpoint,
		region:   region,
		clients:  cache.NewCache[string, s3API](),
	}
	m.dial = m.newClient
	return m
}

func splitToken(token string) (string, string, error) {
	keyID, secret, ok := strings.Cut(token, ":")
	if !ok || keyID == "" || secret == "" {
		return "", "", fmt.Errorf("%w: s3 token must be ACCESS_KEY_ID:SECRET", model.ErrAuth)
	}
	return keyID, secret, nil
}

func (m *S3) newClient(ctx context.Context, target Target) (s3API, error) {
	keyID, secret, err := splitToken(target.Token)
	if err != nil {
		return nil, err
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(keyID, secret, "")),
		awsconfig.WithRegion(m.region),
	)
	if err != nil {
		return nil, fmt.Errorf("load s3 config: %w", err)
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if m.endpoint != "" {
			o.BaseEndpoint = aws.String(m.endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

func (m *S3) client(ctx context.Context, target Target) (s3API, error) {
	return m.clients.GetOrCreate(target.Token, func() (s3API, error) {
		return m.dial(ctx, target)
	})
}

// classify turns an SDK error into the mirror's error model. handled is
// true when the service answered, with status set to its HTTP status.
func classify(err error) (status int, handled bool) {
	var noKey *types.NoSuchKey
	if errors.As(err, &noKey) {
		return http.StatusNotFound, true
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return http.StatusNotFound, true
	}
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		return respErr.HTTPStatusCode(), true
	}
	return 0, false
}

func (m *S3) Fetch(ctx context.Context, target Target, id model.PostID) (*File, error) {
	c, err := m.client(ctx, target)
	if err != nil {
		return nil, err
	}

	out, err := c.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(target.Repository),
		Key:    aws.String(filePath(id)),
	})
	if err != nil {
		status, handled := classify(err)
		switch {
		case !handled:
			return nil, fmt.Errorf("%w: get %s: %w", model.ErrRemoteUnavailable, filePath(id), err)
		case status == http.StatusNotFound:
			return nil, nil
		default:
			return nil, &StatusError{Op: "GET " + filePath(id), StatusCode: status}
		}
	}
	defer out.Body.Close()

	file := &File{Token: VersionToken(aws.ToString(out.ETag))}

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", model.ErrRemoteUnavailable, filePath(id), err)
	}
	var post model.Post
	if err := json.Unmarshal(data, &post); err != nil {
		remoteLogger.Warn().Err(err).Str("post_id", string(id)).Msg("Remote object is not a post")
		return file, nil
	}
	file.Post = &post
	return file, nil
}

func (m *S3) Write(ctx context.Context, target Target, post model.Post, token VersionToken) (bool, error) {
	c, err := m.client(ctx, target)
	if err != nil {
		return false, err
	}

	data, err := json.MarshalIndent(post, "", "  ")
	if err != nil {
		return false, fmt.Errorf("encode post: %w", err)
	}

	in := &s3.PutObjectInput{
		Bucket:      aws.String(target.Repository),
		Key:         aws.String(filePath(post.ID)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
		Metadata: map[string]string{
			"title":   post.Title,
			"version": fmt.Sprint(post.Version),
		},
	}
	if token == "" {
		in.IfNoneMatch = aws.String("*")
	} else {
		in.IfMatch = aws.String(string(token))
	}

	if _, err := c.PutObject(ctx, in); err != nil {
		status, handled := classify(err)
		if !handled {
			return false, fmt.Errorf("%w: put %s: %w", model.ErrRemoteUnavailable, filePath(post.ID), err)
		}
		remoteLogger.Warn().Str("post_id", string(post.ID)).Int("status", status).Msg("S3 rejected post write")
		return false, nil
	}
	return true, nil
}

func (m *S3) Remove(ctx context.Context, target Target, id model.PostID, token VersionToken) (bool, error) {
	c, err := m.client(ctx, target)
	if err != nil {
		return false, err
	}

	in := &s3.DeleteObjectInput{
		Bucket: aws.String(target.Repository),
		Key:    aws.String(filePath(id)),
	}
	if token != "" {
		in.IfMatch = aws.String(string(token))
	}

	if _, err := c.DeleteObject(ctx, in); err != nil {
		status, handled := classify(err)
		if !handled {
			return false, fmt.Errorf("%w: delete %s: %w", model.ErrRemoteUnavailable, filePath(id), err)
		}
		remoteLogger.Warn().Str("post_id", string(id)).Int("status", status).Msg("S3 rejected post delete")
		return false, nil
	}
	return true, nil
}
