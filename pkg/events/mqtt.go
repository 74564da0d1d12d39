package events

import (
	"fmt"
	"github.com/dancavallaro/gesture-recorder/pkg/recorder"
	"github.com/eclipse/paho.mqtt.golang"
	"math/rand"
	"time"
)

const publishTimeout = 5 * time.Second

type Logger interface {
	Println(v ...interface{})
	Printf(format string, v ...interface{})
}

type MQTTConfig struct {
	Username      string
	Password      string
	BrokerAddress string

	// ClientID is generated when empty. Brokers drop the older session when two
	// clients share an id.
	ClientID    string
	Logger      Logger
	DebugLogger Logger
}

func clientOptions(cfg MQTTConfig) *mqtt.ClientOptions {
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = generateClientId()
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.BrokerAddress)
	opts.SetClientID(clientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetKeepAlive(2 * time.Second)
	opts.SetPingTimeout(1 * time.Second)
	opts.SetOrderMatters(false)
	return opts
}

func Connect(cfg MQTTConfig) (mqtt.Client, error) {
	opts := clientOptions(cfg)

	if cfg.Logger != nil {
		mqtt.ERROR = cfg.Logger
		mqtt.CRITICAL = cfg.Logger
		mqtt.WARN = cfg.Logger
	}
	if cfg.DebugLogger != nil {
		mqtt.DEBUG = cfg.DebugLogger
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return client, nil
}

type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTPublisher announces saved recordings. It never fails the recorder: a
// publish error is only logged.
type MQTTPublisher struct {
	client publisher
	logger Logger
	now    func() time.Time
}

func NewMQTTPublisher(client publisher, logger Logger) *MQTTPublisher {
	return &MQTTPublisher{client: client, logger: logger, now: time.Now}
}

func (pub *MQTTPublisher) SessionSaved(s recorder.Session) {
	ev := Recorded{
		Gesture: s.Gesture,
		File:    s.Filename,
		Rows:    s.Rows,
		Time:    pub.now().UTC(),
	}
	if err := pub.Publish(ev); err != nil {
		pub.logger.Printf("Failed to publish recording of %s: %v\n", ev.File, err)
	}
}

func (pub *MQTTPublisher) Publish(ev Recorded) error {
	payload, err := ev.Encode()
	if err != nil {
		return err
	}
	token := pub.client.Publish(Topic(ev.Gesture), 1, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish to %s timed out", Topic(ev.Gesture))
	}
	return token.Error()
}

type MQTTListener struct {
	client mqtt.Client
}

func NewMQTTListener(client mqtt.Client) *MQTTListener {
	return &MQTTListener{client}
}

type RecordingHandler interface {
	Recorded(ev Recorded)
	Invalid(topic string, message string)
}

func (lis MQTTListener) RegisterHandler(handler RecordingHandler) error {
	token := lis.client.Subscribe(TopicFilter, 1, func(_ mqtt.Client, msg mqtt.Message) {
		dispatch(handler, msg.Topic(), msg.Payload())
	})
	token.Wait()
	return token.Error()
}

func dispatch(handler RecordingHandler, topic string, payload []byte) {
	gesture, ok := GestureFromTopic(topic)
	if !ok {
		handler.Invalid(topic, string(payload))
		return
	}
	ev, err := Decode(payload)
	if err != nil {
		handler.Invalid(topic, string(payload))
		return
	}
	if ev.Gesture == "" {
		ev.Gesture = gesture
	}
	handler.Recorded(ev)
}

func (lis MQTTListener) Close() {
	lis.client.Disconnect(1000)
}

func generateClientId() string {
	now := time.Now().Unix()
	random := rand.Intn(1000000)
	return fmt.Sprintf("gesture-recorder-%v-%v", now, random)
}
