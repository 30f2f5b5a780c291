package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cristopher43/gamer-zeta-frontend/models"
)

// TopicPublisher is satisfied by pkg/aws.SNSClient.
type TopicPublisher interface {
	Publish(ctx context.Context, topicArn, eventType string, message []byte) error
}

type SNSPublisher struct {
	client   TopicPublisher
	topicARN string
}

func NewSNSPublisher(client TopicPublisher, topicARN string) (*SNSPublisher, error) {
	if topicARN == "" {
		return nil, fmt.Errorf("SNS_SALES_TOPIC_ARN not set")
	}
	return &SNSPublisher{client: client, topicARN: topicARN}, nil
}

func (p *SNSPublisher) PublishSaleCompleted(ctx context.Context, event models.SaleCompletedEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}
	return p.client.Publish(ctx, p.topicARN, event.Type, data)
}

func (p *SNSPublisher) Close() error { return nil }
