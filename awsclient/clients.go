package awsclient

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"awsgateway/logger"
)

var log = logger.Named("aws")

// Clients содержит клиенты SDK, общие для всех запросов.
// Клиенты aws-sdk-go-v2 безопасны для конкурентного использования.
type Clients struct {
	S3      *s3.Client
	Presign *s3.PresignClient
	SQS     *sqs.Client
}

// LoadAWSConfig строит aws.Config из конфигурации модуля
func LoadAWSConfig(ctx context.Context, cfg *Config) (aws.Config, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}

	if cfg.HasStaticCredentials() {
		log.Debug("Using static credentials (access key %s)", cfg.AccessKeyID)
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretKey,
			cfg.SessionToken,
		)))
	} else {
		log.Info("Static credentials not configured, using default credential chain")
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}

	if cfg.Endpoint != "" {
		awsConfig.BaseEndpoint = aws.String(cfg.Endpoint)
	}

	return awsConfig, nil
}

// NewClients создает клиенты S3, presign и SQS
func NewClients(ctx context.Context, cfg *Config) (*Clients, error) {
	if cfg == nil {
		return nil, fmt.Errorf("AWS config not provided")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	awsConfig, err := LoadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return NewClientsFromConfig(awsConfig, cfg), nil
}

// NewClientsFromConfig создает клиенты из уже загруженного aws.Config
func NewClientsFromConfig(awsConfig aws.Config, cfg *Config) *Clients {
	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	})
	sqsClient := sqs.NewFromConfig(awsConfig)

	log.Info("Created AWS clients (region: %s, endpoint: %s, path style: %t)",
		awsConfig.Region, endpointOrDefault(cfg.Endpoint), cfg.UsePathStyle)

	return &Clients{
		S3:      s3Client,
		Presign: s3.NewPresignClient(s3Client),
		SQS:     sqsClient,
	}
}

func endpointOrDefault(endpoint string) string {
	if endpoint == "" {
		return "default"
	}
	return endpoint
}
