package ec2

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/go-logr/logr"

	"github.com/imamik/sparkfleet/pkg/cloud"
)

// clientOptions configures NewClient.
type clientOptions struct {
	accessKeyID     string
	secretAccessKey string
	endpoint        string
	maxAttempts     int
	logger          logr.Logger
}

// ClientOption configures the EC2 client.
type ClientOption func(*clientOptions)

// WithStaticCredentials uses fixed access keys instead of the default chain.
func WithStaticCredentials(accessKeyID, secretAccessKey string) ClientOption {
	return func(o *clientOptions) {
		o.accessKeyID = accessKeyID
		o.secretAccessKey = secretAccessKey
	}
}

// WithEndpoint overrides the EC2 endpoint (useful for local emulators).
func WithEndpoint(endpoint string) ClientOption {
	return func(o *clientOptions) {
		o.endpoint = endpoint
	}
}

// WithMaxAttempts sets the SDK retryer's maximum attempts.
func WithMaxAttempts(n int) ClientOption {
	return func(o *clientOptions) {
		o.maxAttempts = n
	}
}

// WithLogger sets the logger used for per-call debug output.
func WithLogger(l logr.Logger) ClientOption {
	return func(o *clientOptions) {
		o.logger = l
	}
}

// NewClient builds an instrumented EC2 client for the given region.
func NewClient(ctx context.Context, region string, opts ...ClientOption) (cloud.EC2API, error) {
	o := &clientOptions{logger: logr.Discard()}
	for _, opt := range opts {
		opt(o)
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if o.accessKeyID != "" && o.secretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(o.accessKeyID, o.secretAccessKey, "")))
	}
	if o.maxAttempts > 0 {
		loadOpts = append(loadOpts, awsconfig.WithRetryMaxAttempts(o.maxAttempts))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := ec2.NewFromConfig(awsCfg, func(eo *ec2.Options) {
		if o.endpoint != "" {
			eo.BaseEndpoint = aws.String(o.endpoint)
		}
	})

	return NewInstrumentedClient(client, o.logger), nil
}
