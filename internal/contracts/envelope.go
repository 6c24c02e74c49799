package contracts

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const NotificationType = "Notification"

// Notification is the delivery envelope a topic wraps around a published
// body before it reaches a subscribed queue. The layout follows SNS so SQS
// subscriptions without raw delivery and the in-house brokers look alike.
type Notification struct {
	Type      string `json:"Type"`
	MessageID string `json:"MessageId"`
	TopicArn  string `json:"TopicArn"`
	Message   string `json:"Message"`
	Timestamp string `json:"Timestamp"`
}

func WrapNotification(topic, messageID string, body []byte, at time.Time) ([]byte, error) {
	b, err := json.Marshal(Notification{
		Type:      NotificationType,
		MessageID: messageID,
		TopicArn:  topic,
		Message:   string(body),
		Timestamp: at.UTC().Format("2006-01-02T15:04:05.000Z"),
	})
	if err != nil {
		return nil, fmt.Errorf("wrap notification: %w", err)
	}
	return b, nil
}

// unwrapNotification reports ok=false when raw is not an envelope.
func unwrapNotification(raw []byte) ([]byte, bool, error) {
	var probe struct {
		Type    string           `json:"Type"`
		Message *json.RawMessage `json:"Message"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, false, err
	}
	if probe.Type != NotificationType || probe.Message == nil {
		return nil, false, nil
	}

	var inner string
	if err := json.Unmarshal(*probe.Message, &inner); err != nil {
		return nil, false, fmt.Errorf("notification Message is not a string: %w", err)
	}
	if inner == "" {
		return nil, false, errors.New("notification Message is empty")
	}
	return []byte(inner), true, nil
}
