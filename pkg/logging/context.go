package logging

import (
	"context"
)

type contextKey string

const (
	DataIDKey      contextKey = "data_id"
	TopicKey       contextKey = "topic"
	ServiceNameKey contextKey = "service_name"
)

func WithDataID(ctx context.Context, dataID string) context.Context {
	return context.WithValue(ctx, DataIDKey, dataID)
}

func WithTopic(ctx context.Context, topic string) context.Context {
	return context.WithValue(ctx, TopicKey, topic)
}

func GetDataID(ctx context.Context) string {
	if dataID, ok := ctx.Value(DataIDKey).(string); ok {
		return dataID
	}
	return ""
}

func GetTopic(ctx context.Context) string {
	if topic, ok := ctx.Value(TopicKey).(string); ok {
		return topic
	}
	return ""
}

func GetServiceName(ctx context.Context) string {
	if serviceName, ok := ctx.Value(ServiceNameKey).(string); ok {
		return serviceName
	}
	return ""
}

func GetLogFields(ctx context.Context) []interface{} {
	fields := make([]interface{}, 0, 6)

	if dataID := GetDataID(ctx); dataID != "" {
		fields = append(fields, "data_id", dataID)
	}

	if topic := GetTopic(ctx); topic != "" {
		fields = append(fields, "topic", topic)
	}

	if serviceName := GetServiceName(ctx); serviceName != "" {
		fields = append(fields, "service_name", serviceName)
	}

	return fields
}
