package alert

import (
	"context"
	"crypto/tls"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"synoptic/internal/config"
	"synoptic/internal/constants"
	"synoptic/internal/logger"
)

// Publisher pushes monitoring events onto the shared notification broker.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
	Close()
}

type MQTTPublisher struct {
	client mqtt.Client
	logger logger.Logger
}

func NewMQTTPublisher(cfg config.MQTTConfig, log logger.Logger) (*MQTTPublisher, error) {
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
		SetConnectRetry(true)

	if cfg.TLS {
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to feed broker: %w", err)
	}

	return &MQTTPublisher{client: client, logger: log}, nil
}

func (p *MQTTPublisher) Publish(ctx context.Context, topic string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	token := p.client.Publish(topic, 1, false, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}

	p.logger.DebugwCtx(ctx, "monitoring event published", "topic", topic)
	return nil
}

func (p *MQTTPublisher) Close() {
	p.client.Disconnect(uint(constants.DefaultMQTTDisconnectQuiesce.Milliseconds()))
}
