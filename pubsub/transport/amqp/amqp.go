package amqp

import (
	"context"
	"sync"
	"time"

	"github.com/dipalisurve2377/organization-events-sub001/log"
	"github.com/dipalisurve2377/organization-events-sub001/pubsub/transport"
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
)

type connector func(url string, logger log.Logger) (AmqpConnection, error)

func dialConnection(url string, logger log.Logger) (AmqpConnection, error) {
	conn, err := Dial(url, logger)
	if err != nil {
		return nil, err
	}

	return conn, nil
}

func NewTransport(url string, logger log.Logger) transport.Transport {
	return &amqpTransport{
		url:     url,
		connect: dialConnection,
		logger:  logger,
	}
}

type amqpTransport struct {
	url               string
	connect           connector
	connection        AmqpConnection
	publishingChannel AmqpChannel
	logger            log.Logger
}

func (t *amqpTransport) Connect(ctx context.Context) error {
	conn, err := t.connect(t.url, t.logger)
	if err != nil {
		return errors.WithStack(err)
	}

	publishingChannel, err := conn.Channel()

	if err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			t.logger.Logf(log.ErrorLevel, "error closing connection. %s", closeErr)
		}
		return errors.Wrap(err, "creating publishing channel")
	}

	t.connection = conn
	t.publishingChannel = publishingChannel

	return nil
}

// CreateTopic creates an exchange in amqp. Allows options are: durable, autoDelete, internal, noWait.
func (t *amqpTransport) CreateTopic(ctx context.Context, topic transport.Topic) error {
	if err := t.checkConnection(); err != nil {
		return errors.WithStack(err)
	}

	amqpTopic, topicConv := topic.(amqpTopic)

	if !topicConv {
		return errors.Errorf("Supplied topic is not an instance of amqp.Topic")
	}

	if err := t.publishingChannel.ExchangeDeclare(
		amqpTopic.Name(),
		amqpTopic.kind,
		amqpTopic.durable,
		amqpTopic.autoDelete,
		amqpTopic.internal,
		amqpTopic.noWait,
		nil,
	); err != nil {
		return errors.Wrapf(err, "declaring exchange %s", amqpTopic.Name())
	}

	return nil
}

func (t *amqpTransport) CreateQueue(ctx context.Context, q transport.Queue, qbs ...transport.QueueBind) error {
	if err := t.checkConnection(); err != nil {
		return errors.WithStack(err)
	}

	queue, queueConv := q.(amqpQueue)

	if !queueConv {
		return errors.Errorf("Supplied Queue is not an instance of amqp.amqpQueue")
	}

	var queueBinds []amqpQueueBind

	for _, item := range qbs {
		queueBind, queueBindConv := item.(amqpQueueBind)

		if !queueBindConv {
			return errors.Errorf("One of supplied QueueBinds is not an instance of amqp.amqpQueueBind")
		}

		queueBinds = append(queueBinds, queueBind)
	}

	var args amqp.Table
	if queue.queueType != "" {
		args = amqp.Table{"x-queue-type": string(queue.queueType)}
	}

	if _, err := t.publishingChannel.QueueDeclare(
		queue.Name(),
		queue.durable,
		queue.autoDelete,
		queue.exclusive,
		queue.noWait,
		args,
	); err != nil {
		return errors.Wrapf(err, "declaring queue %s", queue.Name())
	}

	for _, qb := range queueBinds {
		if err := t.publishingChannel.QueueBind(
			queue.Name(),
			qb.BindingKey(),
			qb.DestinationTopic(),
			qb.noWait,
			nil,
		); err != nil {
			return errors.Wrapf(err, "binding queue %s to %s", queue.Name(), qb.DestinationTopic())
		}
	}

	return nil
}

func (t *amqpTransport) Send(ctx context.Context, outboundPkg transport.OutboundPkg, options ...transport.SendOpt) error {
	if err := t.checkConnection(); err != nil {
		return errors.WithStack(err)
	}

	sendOptions := &sendOptions{}

	for _, opt := range options {
		if err := opt(sendOptions); err != nil {
			return errors.WithStack(err)
		}
	}

	if err := t.publishingChannel.Publish(
		outboundPkg.Destination().DestinationTopic,
		outboundPkg.Destination().RoutingKey,
		sendOptions.Mandatory,
		sendOptions.Immediate,
		amqp.Publishing{
			MessageId:    outboundPkg.UID(),
			Headers:      outboundPkg.Headers(),
			ContentType:  outboundPkg.ContentType(),
			Body:         outboundPkg.Payload(),
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	); err != nil {
		return errors.Wrap(err, "sending out pkg")
	}

	return nil
}

func (t *amqpTransport) Consume(ctx context.Context, queues []transport.Queue, options ...transport.ConsumeOpt) (<-chan transport.IncomingPkg, error) {
	if err := t.checkConnection(); err != nil {
		return nil, errors.WithStack(err)
	}

	consumeOptions := &consumeOptions{}

	for _, opt := range options {
		if err := opt(consumeOptions); err != nil {
			return nil, errors.WithStack(err)
		}
	}

	consumingChannel, err := t.connection.Channel()
	if err != nil {
		return nil, errors.Wrap(err, "creating consuming channel")
	}

	if consumeOptions.PrefetchCount > 0 {
		if err := consumingChannel.Qos(int(consumeOptions.PrefetchCount), 0, false); err != nil {
			return nil, errors.Wrap(err, "setting qos")
		}
	}

	income := make(chan transport.IncomingPkg)

	consumersWait := &sync.WaitGroup{}

	consumersCtx, cancelConsumers := context.WithCancel(ctx)

	for _, q := range queues {
		consumingCh, err := consumingChannel.Consume(
			q.Name(),
			q.Name(),
			false,
			consumeOptions.Exclusive,
			consumeOptions.NoLocal,
			consumeOptions.NoWait,
			nil,
		)

		if err != nil {
			cancelConsumers() // this will shut down all goroutines previously created in this loop
			return nil, errors.Wrapf(err, "consuming %s", q.Name())
		}

		consumersWait.Add(1)

		go func(queue transport.Queue, deliveries <-chan amqp.Delivery) {
			defer consumersWait.Done()

			defer func() {
				t.logger.Logf(log.InfoLevel, "canceling consumer %s", queue.Name())
				if err := consumingChannel.Cancel(queue.Name(), true); err != nil {
					t.logger.Logf(log.ErrorLevel, "error canceling consumer %s. %s", queue.Name(), err)
				}
			}()

			for {
				select {
				case msg, open := <-deliveries:
					if !open {
						t.logger.Logf(log.WarnLevel, "Amqp consumer closed channel for queue %s", queue.Name())
						return
					}

					select {
					case income <- &inAmqpPkg{origin: queue.Name(), receivedAt: time.Now(), delivery: msg}:
					case <-consumersCtx.Done():
						return
					}
				case <-consumersCtx.Done():
					t.logger.Logf(log.InfoLevel, "Canceled context. Stopped consuming queue %s", queue.Name())
					return
				}
			}
		}(q, consumingCh)
	}

	go func() {
		consumersWait.Wait()
		cancelConsumers()

		if err := consumingChannel.Close(); err != nil {
			t.logger.Logf(log.ErrorLevel, "error closing amqp channel. %s", err)
		} else {
			t.logger.Log(log.InfoLevel, "closed consumer channel")
		}

		close(income)
	}()

	return income, nil
}

func (t *amqpTransport) Disconnect(ctx context.Context) error {
	if t.connection == nil || t.publishingChannel == nil {
		return nil
	}

	if err := t.publishingChannel.Close(); err != nil {
		return errors.Wrap(err, "error closing publishing channel")
	}

	if err := t.connection.Close(); err != nil {
		return errors.Wrap(err, "error closing connection")
	}

	t.connection = nil
	t.publishingChannel = nil

	return nil
}

func (t *amqpTransport) checkConnection() error {
	if t.connection == nil {
		return errors.Errorf("Connection wasn't established. Use transport.Connect first")
	}

	return nil
}
