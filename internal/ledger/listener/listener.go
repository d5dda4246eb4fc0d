package listener

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/ardhix/warehouse-ledger/internal/auth"
	"github.com/ardhix/warehouse-ledger/internal/broker"
	"github.com/ardhix/warehouse-ledger/internal/ledger"
	"github.com/ardhix/warehouse-ledger/internal/ledger/dto"
)

// ShipmentListener turns shipment-requested events from the order system
// into export commits through the normal ledger path.
type ShipmentListener struct {
	consumer *broker.KafkaConsumer
	uc       ledger.UseCase
	logger   *zap.Logger
}

func NewShipmentListener(consumer *broker.KafkaConsumer, uc ledger.UseCase, log *zap.Logger) *ShipmentListener {
	return &ShipmentListener{consumer: consumer, uc: uc, logger: log}
}

func (l *ShipmentListener) Start(ctx context.Context) {
	l.logger.Info("starting shipment listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("stopping shipment listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("failed to read kafka message", zap.Error(err))
				time.Sleep(1 * time.Second)
				continue
			}
			l.processMessage(ctx, msg.Value)
		}
	}
}

type ShipmentRequestedEvent struct {
	EventID   string          `json:"event_id"`
	EventType string          `json:"event_type"`
	Payload   ShipmentPayload `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

type ShipmentPayload struct {
	Reference string                `json:"reference"`
	Recipient string                `json:"recipient"`
	Items     []ShipmentItemPayload `json:"items"`
}

type ShipmentItemPayload struct {
	Code     string `json:"code"`
	Quantity int    `json:"quantity"`
	Location string `json:"location"`
}

func (l *ShipmentListener) processMessage(ctx context.Context, value []byte) {
	var event ShipmentRequestedEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("failed to unmarshal event", zap.Error(err))
		return
	}

	if event.EventType != "ShipmentRequested" {
		return
	}

	l.logger.Info("processing ShipmentRequested event", zap.String("reference", event.Payload.Reference))

	input := &dto.ExportInput{Recipient: event.Payload.Recipient}
	for _, item := range event.Payload.Items {
		input.Lines = append(input.Lines, dto.ExportLine{
			Code:     item.Code,
			Quantity: item.Quantity,
			Location: item.Location,
		})
	}

	if _, err := l.uc.CommitExport(ctx, auth.System, input); err != nil {
		l.logger.Error("failed to commit export for shipment",
			zap.String("reference", event.Payload.Reference),
			zap.Error(err),
		)
	}
}
