package kafka

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

type Producer interface {
	SendMessage(ctx context.Context, key string, message interface{}) error
	Close() error
}

type kafkaProducer struct {
	writer *kafka.Writer
	topic  string
}

// NewProducer connects to the brokers and makes sure topic exists. When the brokers cannot be
// reached it returns a mock producer that only logs.
func NewProducer(brokers, topic string) Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}

	log := logrus.WithFields(logrus.Fields{"brokers": brokers, "topic": topic})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := kafka.DialContext(ctx, "tcp", brokers)
	if err != nil {
		log.Warnf("kafka connection failed, using mock producer: %v", err)
		writer.Close()
		return NewMockProducer(topic)
	}
	defer conn.Close()

	err = conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
	if err != nil {
		log.Debugf("could not create topic (might already exist): %v", err)
	}

	log.Info("connected to kafka")
	return &kafkaProducer{writer: writer, topic: topic}
}

func (p *kafkaProducer) SendMessage(ctx context.Context, key string, message interface{}) error {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: messageBytes,
		Time:  time.Now(),
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		logrus.WithField("topic", p.topic).Errorf("failed to write message to kafka: %v", err)
		return err
	}

	logrus.WithFields(logrus.Fields{"topic": p.topic, "key": key}).Debug("message sent")
	return nil
}

func (p *kafkaProducer) Close() error {
	return p.writer.Close()
}

// MockProducer records messages instead of sending them.
type MockProducer struct {
	topic string

	mu       sync.Mutex
	messages []kafka.Message
}

func NewMockProducer(topic string) *MockProducer {
	return &MockProducer{topic: topic}
}

func (m *MockProducer) SendMessage(_ context.Context, key string, message interface{}) error {
	value, err := json.Marshal(message)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.messages = append(m.messages, kafka.Message{Topic: m.topic, Key: []byte(key), Value: value, Time: time.Now()})
	m.mu.Unlock()

	logrus.WithFields(logrus.Fields{"topic": m.topic, "key": key, "bytes": len(value)}).Info("MOCK: message published")
	return nil
}

// Messages returns what was published so far.
func (m *MockProducer) Messages() []kafka.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]kafka.Message, len(m.messages))
	copy(out, m.messages)
	return out
}

func (m *MockProducer) Close() error {
	return nil
}
