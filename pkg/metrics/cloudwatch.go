package metrics

import (
	"context"
	"errors"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/dancavallaro/gesture-recorder/awso"
	"github.com/dancavallaro/gesture-recorder/pkg/events"
	"log"
	"time"
)

type PutMetricDataAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

type CloudwatchClientProvider interface {
	Client(ctx context.Context) (PutMetricDataAPI, error)
	Check(err error) error
}

type awsoProvider struct {
	cp *awso.ClientProvider[cloudwatch.Client]
}

// FromClientProvider adapts a cached CloudWatch client for the publisher.
func FromClientProvider(cp *awso.ClientProvider[cloudwatch.Client]) CloudwatchClientProvider {
	return awsoProvider{cp}
}

func (p awsoProvider) Client(ctx context.Context) (PutMetricDataAPI, error) {
	client, err := p.cp.Client(ctx)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (p awsoProvider) Check(err error) error {
	return p.cp.Check(err)
}

type CloudwatchPublisher struct {
	RetryDelay time.Duration

	cw               CloudwatchClientProvider
	metricNamespace  string
	metricName       string
	gestureDimension string
}

func NewCloudwatchPublisher(
	cw CloudwatchClientProvider, metricNamespace string, metricName string, gestureDimension string,
) CloudwatchPublisher {
	return CloudwatchPublisher{
		RetryDelay:       5 * time.Second,
		cw:               cw,
		metricNamespace:  metricNamespace,
		metricName:       metricName,
		gestureDimension: gestureDimension,
	}
}

func (pub CloudwatchPublisher) PublishRecording(ctx context.Context, ev events.Recorded) error {
	if err := pub.publishRecording(ctx, ev); err != nil {
		if !errors.Is(err, awso.ClientInvalidated) {
			return err
		}

		log.Printf("IAM creds are expired, sleeping for %v then retrying\n", pub.RetryDelay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pub.RetryDelay):
		}

		if err := pub.publishRecording(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}

func (pub CloudwatchPublisher) publishRecording(ctx context.Context, ev events.Recorded) error {
	client, err := pub.cw.Client(ctx)
	if err != nil {
		return err
	}

	dimensions := []types.Dimension{
		{
			Name:  aws.String(pub.gestureDimension),
			Value: aws.String(ev.Gesture),
		},
	}
	timestamp := ev.Time
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	_, err = client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(pub.metricNamespace),
		MetricData: []types.MetricDatum{
			{
				MetricName: aws.String(pub.metricName),
				Dimensions: dimensions,
				Timestamp:  aws.Time(timestamp),
				Value:      aws.Float64(1),
				Unit:       types.StandardUnitCount,
			},
			{
				MetricName: aws.String(pub.metricName + "Rows"),
				Dimensions: dimensions,
				Timestamp:  aws.Time(timestamp),
				Value:      aws.Float64(float64(ev.Rows)),
				Unit:       types.StandardUnitCount,
			},
		},
	})
	if err != nil {
		return pub.cw.Check(err)
	}

	log.Printf("Published recording metrics for gesture %s (%d rows)\n", ev.Gesture, ev.Rows)
	return nil
}
