package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

const TopicFilter = "gestures/+/recorded"

var topicRegex = regexp.MustCompile(`^gestures/([^/]+)/recorded$`)

// gesture names become a single topic level, so separators and wildcards go
var topicLevelReplacer = strings.NewReplacer("/", "_", "+", "_", "#", "_")

// Recorded is published once for every gesture file the recorder saves.
type Recorded struct {
	Gesture string    `json:"gesture"`
	File    string    `json:"file"`
	Rows    int       `json:"rows"`
	Time    time.Time `json:"time"`
}

func Topic(gesture string) string {
	if gesture == "" {
		gesture = "unnamed"
	}
	return fmt.Sprintf("gestures/%s/recorded", topicLevelReplacer.Replace(gesture))
}

func GestureFromTopic(topic string) (string, bool) {
	m := topicRegex.FindStringSubmatch(topic)
	if m == nil {
		return "", false
	}
	return m[1], true
}

func (ev Recorded) Encode() ([]byte, error) {
	return json.Marshal(ev)
}

func Decode(payload []byte) (Recorded, error) {
	var ev Recorded
	if err := json.Unmarshal(payload, &ev); err != nil {
		return Recorded{}, fmt.Errorf("decoding recorded event: %w", err)
	}
	if ev.File == "" {
		return Recorded{}, errors.New("recorded event has no file")
	}
	return ev, nil
}
