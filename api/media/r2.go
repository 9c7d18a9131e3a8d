/* r2.go
 * Contains the Cloudflare R2 mirror. R2 speaks the S3 API, so the aws sdk is pointed at the account endpoint
 */

package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/vlakddp4/publicbot/api/shared"
)

// MaxImageBytes is the largest profile image that will be mirrored
const MaxImageBytes = 8 << 20

// R2Config holds the bucket credentials
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	AccessKeySecret string
	Bucket          string
	PublicBaseURL   string // defaults to the account endpoint
}

// Enabled reports whether enough is configured to upload
func (c R2Config) Enabled() bool {
	return c.AccountID != "" && c.AccessKeyID != "" && c.AccessKeySecret != "" && c.Bucket != ""
}

// objectPutter is the part of *s3.Client the mirror uses
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// R2Mirror downloads attachments and uploads them to an R2 bucket
type R2Mirror struct {
	client        objectPutter
	httpClient    *http.Client
	bucket        string
	publicBaseURL string
	newKey        func(userID int64, ext string) string
}

// NewR2Mirror builds an S3 client for the R2 account in cfg
// Preconditions: Receives a context and an R2Config for which Enabled is true
// Postconditions: Returns the mirror, or an error if the aws config cannot be loaded
func NewR2Mirror(ctx context.Context, cfg R2Config) (*R2Mirror, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("r2 account id, access key, secret and bucket are required")
	}
	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion("auto"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.AccessKeySecret, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load R2 config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})

	publicBaseURL := cfg.PublicBaseURL
	if publicBaseURL == "" {
		publicBaseURL = endpoint + "/" + cfg.Bucket
	}
	return newR2Mirror(client, &http.Client{Timeout: 15 * time.Second}, cfg.Bucket, publicBaseURL), nil
}

func newR2Mirror(client objectPutter, httpClient *http.Client, bucket string, publicBaseURL string) *R2Mirror {
	return &R2Mirror{
		client:        client,
		httpClient:    httpClient,
		bucket:        bucket,
		publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
		newKey:        objectKey,
	}
}

// Mirror downloads the attachment and uploads it under profiles/<userID>/
func (m *R2Mirror) Mirror(ctx context.Context, userID int64, attachment shared.Attachment) (string, error) {
	if attachment.Size > MaxImageBytes {
		return "", fmt.Errorf("attachment %s is %d bytes, limit is %d", attachment.Filename, attachment.Size, MaxImageBytes)
	}

	body, err := m.download(ctx, attachment.URL)
	if err != nil {
		return "", err
	}

	key := m.newKey(userID, path.Ext(attachment.Filename))
	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(attachment.ContentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to R2: %w", err)
	}
	return fmt.Sprintf("%s/%s", m.publicBaseURL, key), nil
}

func (m *R2Mirror) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build attachment request: %w", err)
	}
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download attachment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download attachment: status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read attachment: %w", err)
	}
	if len(body) > MaxImageBytes {
		return nil, fmt.Errorf("attachment exceeds %d bytes", MaxImageBytes)
	}
	return body, nil
}

func objectKey(userID int64, ext string) string {
	return fmt.Sprintf("profiles/%d/%s%s", userID, uuid.NewString(), strings.ToLower(ext))
}
