package subscriber

import (
	"context"
	"crypto/tls"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"synoptic/internal/config"
	"synoptic/internal/constants"
	"synoptic/internal/ingest"
	"synoptic/internal/logger"
	"synoptic/pkg/metrics"
)

// Subscriber holds the single long-lived feed connection. The transport
// owns reconnection: on connection loss the client retries indefinitely
// and the OnConnect hook re-subscribes, so the subscription survives
// broker restarts without any pipeline intervention.
type Subscriber struct {
	client      mqtt.Client
	queue       *ingest.Queue
	topicFilter string
	logger      logger.Logger
}

func New(cfg config.MQTTConfig, queue *ingest.Queue, log logger.Logger) *Subscriber {
	s := &Subscriber{
		queue:       queue,
		topicFilter: cfg.TopicFilter,
		logger:      log,
	}

	scheme := "tcp"
	if cfg.TLS {
		scheme = "ssl"
	}

	opts := mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("%s://%s:%d", scheme, cfg.Host, cfg.Port)).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetKeepAlive(cfg.KeepAlive).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetOnConnectHandler(s.onConnect).
		SetConnectionLostHandler(s.onConnectionLost)

	if cfg.TLS {
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}

	s.client = mqtt.NewClient(opts)
	return s
}

// Run connects and blocks until the context is cancelled, then
// disconnects cleanly so no further messages are accepted. The connect
// retry loop never completes against an unreachable broker, so
// cancellation is honored while still connecting.
func (s *Subscriber) Run(ctx context.Context) error {
	token := s.client.Connect()

	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("connect to feed broker: %w", err)
		}
	case <-ctx.Done():
		s.client.Disconnect(uint(constants.DefaultMQTTDisconnectQuiesce.Milliseconds()))
		s.logger.Info("subscriber stopped while connecting")
		return nil
	}

	<-ctx.Done()

	s.client.Disconnect(uint(constants.DefaultMQTTDisconnectQuiesce.Milliseconds()))
	metrics.MQTTConnected.Set(0)
	s.logger.Info("subscriber disconnected")
	return nil
}

func (s *Subscriber) Connected() bool {
	return s.client.IsConnectionOpen()
}

func (s *Subscriber) onConnect(client mqtt.Client) {
	metrics.MQTTConnected.Set(1)
	s.logger.Infow("connected to feed broker, subscribing", "topic_filter", s.topicFilter)

	token := client.Subscribe(s.topicFilter, 1, s.handleMessage)
	token.Wait()
	if err := token.Error(); err != nil {
		// The reconnect cycle will retry the subscription on the next
		// OnConnect; nothing else to do here.
		s.logger.Errorw("subscribe failed", "error", err, "topic_filter", s.topicFilter)
	}
}

func (s *Subscriber) onConnectionLost(_ mqtt.Client, err error) {
	metrics.MQTTConnected.Set(0)
	s.logger.Warnw("feed connection lost, reconnecting", "error", err)
}

// handleMessage parses one inbound message and hands it to the queue. A
// malformed payload discards that single message only; the connection and
// subscription stay up.
func (s *Subscriber) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	n, err := ParseNotification(msg.Topic(), msg.Payload())
	if err != nil {
		metrics.NotificationsDiscardedTotal.WithLabelValues("parse_error").Inc()
		s.logger.Errorw("discarding malformed feed message",
			"error", err,
			"topic", msg.Topic(),
		)
		return
	}

	metrics.NotificationsReceivedTotal.Inc()
	s.logger.Debugw("notification received",
		"topic", n.Topic,
		"data_id", n.DataID,
	)
	s.queue.Put(n)
}
