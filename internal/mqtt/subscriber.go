package mqtt

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// Subscriber delivers messages of one topic filter to a handler.
type Subscriber struct {
	*conn
	topic string
	qos   byte

	handlerMu sync.RWMutex
	handler   func(topic string, payload []byte) error
}

func NewSubscriber(o Options, topic string, logger *slog.Logger) *Subscriber {
	s := &Subscriber{conn: newConn(o, logger), topic: topic, qos: 1}
	// Clean sessions lose subscriptions on reconnect.
	s.onConnect = func() {
		if err := s.subscribe(); err != nil {
			s.logger.Error("mqtt resubscribe failed", "topic", s.topic, "error", err)
		}
	}
	return s
}

// SetMessageHandler sets the handler called for each message.
func (s *Subscriber) SetMessageHandler(handler func(topic string, payload []byte) error) {
	s.handlerMu.Lock()
	s.handler = handler
	s.handlerMu.Unlock()
}

// Connect establishes the connection; the subscription is made by the
// on-connect callback.
func (s *Subscriber) Connect(ctx context.Context) error {
	return s.connect(ctx)
}

func (s *Subscriber) subscribe() error {
	if !s.IsConnected() {
		return fmt.Errorf("mqtt client not connected")
	}
	token := s.client.Subscribe(s.topic, s.qos, func(_ paho.Client, msg paho.Message) {
		s.handleMessage(msg.Topic(), msg.Payload())
	})
	if err := wait(token, 5*time.Second, "subscribe to "+s.topic); err != nil {
		return err
	}
	s.logger.Info("subscribed to mqtt topic", "topic", s.topic, "qos", s.qos)
	return nil
}

func (s *Subscriber) handleMessage(topic string, payload []byte) {
	s.logger.Debug("received mqtt message", "topic", topic, "size", len(payload))

	s.handlerMu.RLock()
	h := s.handler
	s.handlerMu.RUnlock()
	if h == nil {
		return
	}
	if err := h(topic, payload); err != nil {
		s.logger.Warn("message handler failed", "topic", topic, "error", err)
	}
}

// Disconnect unsubscribes and closes the connection. Safe to call more than once.
func (s *Subscriber) Disconnect() {
	s.stop(func() {
		_ = s.client.Unsubscribe(s.topic).WaitTimeout(2 * time.Second)
	})
	s.logger.Info("mqtt subscriber disconnected")
}
