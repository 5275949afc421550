package amqp

import (
	"time"

	"github.com/dipalisurve2377/organization-events-sub001/pubsub/transport"
	amqp "github.com/rabbitmq/amqp091-go"
)

type inAmqpPkg struct {
	delivery   amqp.Delivery
	receivedAt time.Time
	origin     string
}

func (i inAmqpPkg) UID() string {
	if i.delivery.MessageId != "" {
		return i.delivery.MessageId
	}

	if uidVal, ok := i.Headers()["uid"].(string); ok {
		return uidVal
	}

	return ""
}

func (i inAmqpPkg) Origin() string {
	return i.origin
}

func (i inAmqpPkg) Payload() []byte {
	return i.delivery.Body
}

func (i inAmqpPkg) Headers() map[string]interface{} {
	if i.delivery.Headers == nil {
		return map[string]interface{}{}
	}

	return i.delivery.Headers
}

func (i inAmqpPkg) Ack(options ...transport.AcknowledgmentOption) error {
	ackOpts := collectOpts(options...)

	return i.delivery.Ack(ackOpts.multiple)
}

func (i inAmqpPkg) Nack(options ...transport.AcknowledgmentOption) error {
	ackOpts := collectOpts(options...)

	return i.delivery.Nack(ackOpts.multiple, ackOpts.requeue)
}

func (i inAmqpPkg) Reject(options ...transport.AcknowledgmentOption) error {
	ackOpts := collectOpts(options...)

	return i.delivery.Reject(ackOpts.requeue)
}

func (i inAmqpPkg) PublishedAt() time.Time {
	return i.delivery.Timestamp
}

func (i inAmqpPkg) ReceivedAt() time.Time {
	return i.receivedAt
}

func WithRequeue() transport.AcknowledgmentOption {
	return func(options map[string]interface{}) {
		options["requeue"] = true
	}
}

func WithMultiple() transport.AcknowledgmentOption {
	return func(options map[string]interface{}) {
		options["multiple"] = true
	}
}

type ackOpts struct {
	requeue  bool
	multiple bool
}

func collectOpts(passedOpts ...transport.AcknowledgmentOption) *ackOpts {
	optsMap := map[string]interface{}{}
	for _, opt := range passedOpts {
		opt(optsMap)
	}

	opts := &ackOpts{}

	if requeue, isBool := optsMap["requeue"].(bool); isBool {
		opts.requeue = requeue
	}

	if multiple, isBool := optsMap["multiple"].(bool); isBool {
		opts.multiple = multiple
	}

	return opts
}
