package templates

import (
	"context"
	"io"
	"log"

	"tripeak/training-engine/internal/config"
	"tripeak/training-engine/internal/domain"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsCfg "github.com/aws/aws-sdk-go-v2/config" // Alias config to avoid clash
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3Source loads the published template library from an S3-compatible bucket.
type s3Source struct {
	client     *s3.Client
	bucketName string
	objectKey  string
}

// NewS3Source creates an S3-backed template source.
func NewS3Source(cfg config.TemplateS3Config) (Source, error) {
	// Custom resolver for S3-compatible endpoints (like MinIO, DigitalOcean Spaces)
	customResolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		if cfg.Endpoint != "" {
			return aws.Endpoint{
				PartitionID:   "aws",
				URL:           cfg.Endpoint,
				SigningRegion: cfg.Region,
			}, nil
		}
		// Fallback to default AWS endpoint resolution if no custom endpoint is set
		return aws.Endpoint{}, &aws.EndpointNotFoundError{}
	})

	awsSDKConfig, err := awsCfg.LoadDefaultConfig(context.TODO(),
		awsCfg.WithRegion(cfg.Region),
		awsCfg.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
		awsCfg.WithEndpointResolverWithOptions(customResolver),
	)
	if err != nil {
		log.Printf("ERROR: Failed to load AWS SDK config for template source: %v", err)
		return nil, err
	}

	s3Client := s3.NewFromConfig(awsSDKConfig, func(o *s3.Options) {
		o.UsePathStyle = true // required by most S3-compatible services
	})

	log.Printf("Template library source initialized: bucket %s key %s", cfg.BucketName, cfg.ObjectKey)

	return &s3Source{
		client:     s3Client,
		bucketName: cfg.BucketName,
		objectKey:  cfg.ObjectKey,
	}, nil
}

// Load fetches and decodes the current library object.
func (s *s3Source) Load(ctx context.Context) ([]domain.WorkoutTemplate, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(s.objectKey),
	})
	if err != nil {
		log.Printf("ERROR: Failed to fetch template library '%s' from bucket '%s': %v", s.objectKey, s.bucketName, err)
		return nil, err
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, err
	}
	return decodeLibrary(data)
}
