// Package receipts archives JSON receipts of paid applications in an
// S3-compatible bucket and hands out short-lived download links.
package receipts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	sc "github.com/dmitrijs2005/scholarstream/internal/server/config"
	"github.com/dmitrijs2005/scholarstream/internal/server/models"
)

// LinkValidity is how long a presigned receipt URL stays usable.
const LinkValidity = 15 * time.Minute

// ErrDisabled is returned by the no-op archive.
var ErrDisabled = errors.New("receipt archive disabled")

type Archive interface {
	Put(ctx context.Context, receipt *models.Receipt) error
	PresignedURL(ctx context.Context, app *models.Application) (string, error)
}

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type getPresigner interface {
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// loadDefaultAWSConfig is a seam for tests.
var loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

// S3Archive stores receipts under receipts/yyyy/mm/dd/<applicationId>.json,
// dated by the application date.
type S3Archive struct {
	bucket    string
	client    objectPutter
	presigner getPresigner
}

// NewS3Archive builds the S3 clients from the static credentials, region and
// endpoint in cfg.
func NewS3Archive(ctx context.Context, cfg *sc.Config) (*S3Archive, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3RootUser,
			cfg.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Archive{
		bucket:    cfg.S3Bucket,
		client:    client,
		presigner: s3.NewPresignClient(client),
	}, nil
}

// Key returns the object key of an application's receipt.
func Key(app *models.Application) string {
	d := app.ApplicationDate.UTC()
	return fmt.Sprintf("receipts/%04d/%02d/%02d/%s.json", d.Year(), d.Month(), d.Day(), app.ID)
}

func (a *S3Archive) Put(ctx context.Context, receipt *models.Receipt) error {
	if receipt == nil || receipt.Application == nil {
		return errors.New("empty receipt")
	}

	body, err := json.Marshal(receipt)
	if err != nil {
		return fmt.Errorf("encode receipt: %w", err)
	}

	key := Key(receipt.Application)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (a *S3Archive) PresignedURL(ctx context.Context, app *models.Application) (string, error) {
	req, err := a.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(Key(app)),
	}, s3.WithPresignExpires(LinkValidity))
	if err != nil {
		return "", fmt.Errorf("presign receipt: %w", err)
	}
	return req.URL, nil
}

// Nop is used when no bucket is configured. Put silently succeeds,
// PresignedURL reports ErrDisabled.
type Nop struct{}

func (Nop) Put(context.Context, *models.Receipt) error { return nil }

func (Nop) PresignedURL(context.Context, *models.Application) (string, error) {
	return "", ErrDisabled
}
