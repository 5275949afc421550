package amqp

import "github.com/dipalisurve2377/organization-events-sub001/pubsub/transport"

type QueueType string

const (
	QueueTypeClassic QueueType = "classic"
	QueueTypeQuorum  QueueType = "quorum"
)

type QueueOptionsPatch func(options *amqpQueue)

func WithQueueType(v QueueType) QueueOptionsPatch {
	return func(options *amqpQueue) {
		options.queueType = v
	}
}

func Queue(name string, durable, autoDelete, exclusive, noWait bool, patches ...QueueOptionsPatch) transport.Queue {
	q := amqpQueue{queueName: name, durable: durable, autoDelete: autoDelete, exclusive: exclusive, noWait: noWait}

	for _, patch := range patches {
		patch(&q)
	}

	return q
}

type amqpQueue struct {
	queueName  string
	queueType  QueueType
	durable    bool
	autoDelete bool
	exclusive  bool
	noWait     bool
}

func (q amqpQueue) Name() string {
	return q.queueName
}

func QueueBind(destinationTopic, bindingKey string, noWait bool) transport.QueueBind {
	return amqpQueueBind{destination: destinationTopic, binding: bindingKey, noWait: noWait}
}

type amqpQueueBind struct {
	destination string
	binding     string
	noWait      bool
}

func (q amqpQueueBind) DestinationTopic() string {
	return q.destination
}

func (q amqpQueueBind) BindingKey() string {
	return q.binding
}

// Topic declares a direct exchange, task queues are bound to it by their own name
func Topic(name string, durable, autoDelete, internal, noWait bool) transport.Topic {
	return amqpTopic{name: name, kind: "direct", durable: durable, autoDelete: autoDelete, internal: internal, noWait: noWait}
}

type amqpTopic struct {
	name       string
	kind       string
	durable    bool
	autoDelete bool
	internal   bool
	noWait     bool
}

func (t amqpTopic) Name() string {
	return t.name
}
