package main

import (
	"context"
	"flag"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/dancavallaro/gesture-recorder/awso"
	"github.com/dancavallaro/gesture-recorder/pkg/console"
	"github.com/dancavallaro/gesture-recorder/pkg/events"
	"github.com/dancavallaro/gesture-recorder/pkg/metrics"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const publishTimeout = 30 * time.Second

type recordingHandler struct {
	publisher metrics.CloudwatchPublisher
}

func (handler recordingHandler) Recorded(ev events.Recorded) {
	log.Printf("Received recording %s (%d rows) for gesture %s\n", ev.File, ev.Rows, ev.Gesture)
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := handler.publisher.PublishRecording(ctx, ev); err != nil {
		log.Printf("Failed to publish metrics for %s: %v\n", ev.File, err)
	}
}

func (handler recordingHandler) Invalid(topic string, message string) {
	log.Printf("Received invalid recording message on topic '%s': %s\n", topic, message)
}

var (
	region          = flag.String("region", "us-east-1", "Cloudwatch region to use")
	metricNamespace = flag.String("metricNamespace", "Gestures", "Metric namespace to publish in")
	metricName      = flag.String("metricName", "Recordings", "Metric name to use for recordings")
	metricDimension = flag.String("metricDimension", "Gesture", "Dimension name to use for identifying gestures")
	mqttAddress     = flag.String("mqttAddress", "localhost:1883", "Address:port of MQTT broker")
	mqttUsername    = flag.String("mqttUsername", "<none>", "MQTT username")
	mqttPassword    = flag.String("mqttPassword", "<none>", "MQTT password")
)

func main() {
	flag.Parse()

	console.SetupLog("[metrics] ")

	identity := awso.NewClientProvider(*region, func(cfg aws.Config) *sts.Client {
		return sts.NewFromConfig(cfg)
	})
	if arn, err := awso.CallerIdentity(context.Background(), identity); err != nil {
		log.Printf("Could not verify AWS credentials: %v\n", err)
	} else {
		log.Printf("Publishing metrics as %s\n", arn)
	}

	cw := awso.NewClientProvider(*region, func(cfg aws.Config) *cloudwatch.Client {
		log.Println("Creating new Cloudwatch client")
		return cloudwatch.NewFromConfig(cfg)
	})
	publisher := metrics.NewCloudwatchPublisher(metrics.FromClientProvider(cw), *metricNamespace, *metricName, *metricDimension)

	client, err := events.Connect(events.MQTTConfig{
		BrokerAddress: *mqttAddress,
		Username:      *mqttUsername,
		Password:      *mqttPassword,
		Logger:        log.New(os.Stdout, "[mqtt] ", 0),
	})
	if err != nil {
		log.Panic(err)
	}
	listener := events.NewMQTTListener(client)
	defer func() {
		log.Println("Shutting down MQTT listener now...")
		listener.Close()
	}()
	if err := listener.RegisterHandler(recordingHandler{publisher}); err != nil {
		log.Panic(err)
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)

	<-done
}
