package amqp

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/dipalisurve2377/organization-events-sub001/log"
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	delay          = time.Second * 3 // reconnect after delay seconds
	reconnectCount = 20
)

type dialFunc func(url string) (UnderlyingConnection, error)

func dialURL(url string) (UnderlyingConnection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	return conn, nil
}

// Dial wrap amqp.Dial, dial and get a reconnect connection
func Dial(url string, logger log.Logger) (*Connection, error) {
	return dialWith(url, dialURL, delay, logger)
}

func dialWith(url string, dial dialFunc, reconnectDelay time.Duration, logger log.Logger) (*Connection, error) {
	conn, err := dial(url)
	if err != nil {
		return nil, errors.Wrap(err, "dialing amqp")
	}

	c := &Connection{
		url:            url,
		dial:           dial,
		reconnectDelay: reconnectDelay,
		logger:         logger,
		underlyingConn: conn,
	}

	go c.watch(conn)

	return c, nil
}

// Connection redials the broker when the underlying connection is lost
type Connection struct {
	url            string
	dial           dialFunc
	reconnectDelay time.Duration
	logger         log.Logger
	closed         int32

	mutex          sync.RWMutex
	underlyingConn UnderlyingConnection
}

func (c *Connection) watch(conn UnderlyingConnection) {
	reason, ok := <-conn.NotifyClose(make(chan *amqp.Error, 1))
	// exit this goroutine if closed by developer
	if !ok || c.IsClosed() {
		c.logger.Log(log.InfoLevel, "connection closed explicitly")
		return
	}

	c.logger.Logf(log.WarnLevel, "connection closed, reason: %v", reason)

	for attempt := 1; !c.IsClosed(); attempt++ {
		time.Sleep(c.reconnectDelay)

		if attempt > reconnectCount {
			c.logger.Logf(log.ErrorLevel, "reached limit of reconnects %d", reconnectCount)
			return
		}

		newConn, err := c.dial(c.url)
		if err != nil {
			c.logger.Logf(log.ErrorLevel, "reconnect failed, err: %v", err)
			continue
		}

		c.mutex.Lock()
		c.underlyingConn = newConn
		c.mutex.Unlock()

		c.logger.Log(log.InfoLevel, "successfully reconnected amqp.Connection")

		go c.watch(newConn)

		return
	}
}

func (c *Connection) underlying() UnderlyingConnection {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return c.underlyingConn
}

func (c *Connection) Close() error {
	atomic.StoreInt32(&c.closed, 1)
	return c.underlying().Close()
}

// IsClosed indicate closed by developer
func (c *Connection) IsClosed() bool {
	return atomic.LoadInt32(&c.closed) == 1
}

// Channel wrap amqp.Connection.Channel, get a auto reconnect channel
func (c *Connection) Channel() (AmqpChannel, error) {
	ch, err := c.underlying().Channel()
	if err != nil {
		return nil, errors.Wrap(err, "creating channel")
	}

	channel := &Channel{
		current:        ch,
		logger:         c.logger,
		reconnectDelay: c.reconnectDelay,
	}

	go channel.watch(func() (AmqpChannel, error) {
		newCh, err := c.underlying().Channel()
		if err != nil {
			return nil, err
		}

		return newCh, nil
	})

	return channel, nil
}

// Channel amqp.Channel wrapper, it is reopened after the broker closes it
type Channel struct {
	closed         int32
	logger         log.Logger
	reconnectDelay time.Duration

	mutex   sync.RWMutex
	current AmqpChannel
	qos     *qosSettings
}

type qosSettings struct {
	prefetchCount, prefetchSize int
	global                      bool
}

func (ch *Channel) watch(open func() (AmqpChannel, error)) {
	for {
		reason, ok := <-ch.channel().NotifyClose(make(chan *amqp.Error, 1))
		// exit this goroutine if closed by developer
		if !ok || ch.IsClosed() {
			ch.logger.Log(log.DebugLevel, "channel closed")
			return
		}

		ch.logger.Logf(log.WarnLevel, "channel closed, reason: %v", reason)

		for !ch.IsClosed() {
			time.Sleep(ch.reconnectDelay)

			newCh, err := open()
			if err != nil {
				ch.logger.Logf(log.ErrorLevel, "channel recreate failed, err: %v", err)
				continue
			}

			if err := ch.swap(newCh); err != nil {
				ch.logger.Logf(log.ErrorLevel, "restoring qos of recreated channel failed, err: %v", err)
				continue
			}

			break
		}
	}
}

func (ch *Channel) swap(newCh AmqpChannel) error {
	ch.mutex.Lock()
	defer ch.mutex.Unlock()

	if ch.qos != nil {
		if err := newCh.Qos(ch.qos.prefetchCount, ch.qos.prefetchSize, ch.qos.global); err != nil {
			return err
		}
	}

	ch.current = newCh

	return nil
}

func (ch *Channel) channel() AmqpChannel {
	ch.mutex.RLock()
	defer ch.mutex.RUnlock()

	return ch.current
}

// IsClosed indicate closed by developer
func (ch *Channel) IsClosed() bool {
	return atomic.LoadInt32(&ch.closed) == 1
}

// Close ensure closed flag set
func (ch *Channel) Close() error {
	if ch.IsClosed() {
		return amqp.ErrClosed
	}

	atomic.StoreInt32(&ch.closed, 1)
	return ch.channel().Close()
}

func (ch *Channel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	return ch.channel().ExchangeDeclare(name, kind, durable, autoDelete, internal, noWait, args)
}

func (ch *Channel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	return ch.channel().QueueDeclare(name, durable, autoDelete, exclusive, noWait, args)
}

func (ch *Channel) QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error {
	return ch.channel().QueueBind(name, key, exchange, noWait, args)
}

func (ch *Channel) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	return ch.channel().Publish(exchange, key, mandatory, immediate, msg)
}

func (ch *Channel) NotifyClose(c chan *amqp.Error) chan *amqp.Error {
	return ch.channel().NotifyClose(c)
}

func (ch *Channel) Qos(prefetchCount, prefetchSize int, global bool) error {
	ch.mutex.Lock()
	ch.qos = &qosSettings{prefetchCount: prefetchCount, prefetchSize: prefetchSize, global: global}
	ch.mutex.Unlock()

	return ch.channel().Qos(prefetchCount, prefetchSize, global)
}

func (ch *Channel) Cancel(consumer string, noWait bool) error {
	return ch.channel().Cancel(consumer, noWait)
}

// Consume warp amqp.Channel.Consume, the returned delivery will end only when channel closed by developer
func (ch *Channel) Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error) {
	deliveries := make(chan amqp.Delivery)

	var reconnectedCount uint

	go func() {
		defer close(deliveries)
		for {
			d, err := ch.channel().Consume(queue, consumer, autoAck, exclusive, noLocal, noWait, args)
			if err != nil {
				ch.logger.Logf(log.ErrorLevel, "consume failed, err: %v", err)
				time.Sleep(ch.reconnectDelay)

				if reconnectedCount > reconnectCount || ch.IsClosed() {
					ch.logger.Logf(log.ErrorLevel, "Reached limit of reconnects %d", reconnectCount)
					break
				}

				reconnectedCount++
				ch.logger.Logf(log.DebugLevel, "retrying to reconnect consumer %s", consumer)

				continue
			}

			ch.logger.Logf(log.DebugLevel, "started consuming %s", consumer)

			for msg := range d {
				deliveries <- msg
			}

			// sleep before IsClose call. closed flag may not set before sleep.
			time.Sleep(ch.reconnectDelay)

			if ch.IsClosed() {
				break
			}
		}
	}()

	return deliveries, nil
}
