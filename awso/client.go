package awso

import (
	"context"
	"errors"
	"fmt"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/smithy-go"
	"sync"
)

// ClientInvalidated is returned by Check when the cached client's credentials
// have expired. The next call to Client builds a fresh one.
var ClientInvalidated = errors.New("aws client invalidated")

var expiredCodes = map[string]bool{
	"ExpiredToken":          true,
	"ExpiredTokenException": true,
	"RequestExpired":        true,
}

// ClientProvider is safe for concurrent use.
type ClientProvider[T any] struct {
	Region string

	buildClient func(cfg aws.Config) *T
	loadConfig  func(ctx context.Context, region string) (aws.Config, error)

	mu     sync.Mutex
	client *T
}

func NewClientProvider[T any](region string, buildClient func(cfg aws.Config) *T) *ClientProvider[T] {
	return &ClientProvider[T]{Region: region, buildClient: buildClient, loadConfig: loadDefaultConfig}
}

func loadDefaultConfig(ctx context.Context, region string) (aws.Config, error) {
	return config.LoadDefaultConfig(ctx, config.WithRegion(region))
}

func (cp *ClientProvider[T]) Client(ctx context.Context) (*T, error) {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	if cp.client == nil {
		cfg, err := cp.loadConfig(ctx, cp.Region)
		if err != nil {
			return nil, fmt.Errorf("loading aws config: %w", err)
		}
		cp.client = cp.buildClient(cfg)
	}
	return cp.client, nil
}

// Check drops the cached client when err says its credentials expired.
func (cp *ClientProvider[T]) Check(err error) error {
	var ae smithy.APIError
	if errors.As(err, &ae) && expiredCodes[ae.ErrorCode()] {
		cp.mu.Lock()
		cp.client = nil
		cp.mu.Unlock()
		return fmt.Errorf("%w: %v", ClientInvalidated, err)
	}
	return err
}

func CallerIdentity(ctx context.Context, cp *ClientProvider[sts.Client]) (string, error) {
	client, err := cp.Client(ctx)
	if err != nil {
		return "", err
	}
	resp, err := client.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", cp.Check(err)
	}
	return aws.ToString(resp.Arn), nil
}
