package main

import (
	"context"
	"flag"
	"github.com/dancavallaro/gesture-recorder/pkg/console"
	"github.com/dancavallaro/gesture-recorder/pkg/csvfile"
	"github.com/dancavallaro/gesture-recorder/pkg/events"
	"github.com/dancavallaro/gesture-recorder/pkg/recorder"
	"github.com/dancavallaro/gesture-recorder/pkg/serialio"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"
)

func envOr(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if val, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return val
	}
	return fallback
}

var (
	device       = flag.String("device", envOr("GESTURE_DEVICE", "/dev/ttyUSB0"), "serial device the gesture board is attached to")
	baud         = flag.Int("baud", envIntOr("GESTURE_BAUD", 115200), "baudrate to use")
	readTimeout  = flag.Duration("readTimeout", 100*time.Millisecond, "serial read timeout")
	pollInterval = flag.Duration("pollInterval", 10*time.Millisecond, "pause after a poll that returned no data")
	outDir       = flag.String("outDir", envOr("GESTURE_OUT_DIR", "."), "directory recordings are written to")
	mqttAddress  = flag.String("mqttAddress", envOr("GESTURE_MQTT_ADDRESS", ""), "Address:port of MQTT broker, empty to disable")
	mqttUsername = flag.String("mqttUsername", "<none>", "MQTT username")
	mqttPassword = flag.String("mqttPassword", "<none>", "MQTT password")
	mqttClientID = flag.String("mqttClientId", envOr("GESTURE_MQTT_CLIENT_ID", ""), "MQTT client id, generated when empty")
)

func main() {
	flag.Parse()

	console.SetupLog("[recorder] ")

	os.Exit(run())
}

func run() int {
	port, err := serialio.Open(serialio.Config{Device: *device, Baud: *baud, ReadTimeout: *readTimeout})
	if err != nil {
		log.Printf("Error opening serial port: %v\n", err)
		return 1
	}
	defer func() {
		log.Printf("Closing serial port %s\n", port.Device())
		if err := port.Close(); err != nil {
			log.Println(err)
		}
	}()
	log.Printf("Listening on %s at %d baud, writing recordings to %s\n", port.Device(), *baud, *outDir)

	cfg := recorder.Config{
		Link:         port,
		Operator:     console.NewOperator(os.Stdin, os.Stdout),
		Store:        csvfile.NewWriter(*outDir),
		Logger:       log.Default(),
		PollInterval: *pollInterval,
	}

	if *mqttAddress != "" {
		client, err := events.Connect(events.MQTTConfig{
			BrokerAddress: *mqttAddress,
			Username:      *mqttUsername,
			Password:      *mqttPassword,
			ClientID:      *mqttClientID,
			Logger:        log.New(os.Stdout, "[mqtt] ", 0),
		})
		if err != nil {
			log.Printf("Error connecting to MQTT broker: %v\n", err)
			return 1
		}
		defer func() {
			log.Println("Disconnecting from MQTT broker...")
			client.Disconnect(1000)
		}()
		cfg.Notifier = events.NewMQTTPublisher(client, log.Default())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := recorder.New(cfg).Run(ctx, port); err != nil {
		log.Printf("Serial port failure: %v\n", err)
		return 1
	}
	log.Println("-- Stopped serial port listening --")
	return 0
}
