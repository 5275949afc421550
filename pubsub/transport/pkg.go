package transport

import (
	"time"
)

type IncomingPkg interface {
	UID() string
	Origin() string
	Payload() []byte
	Headers() map[string]interface{}
	Ack(options ...AcknowledgmentOption) error
	Nack(options ...AcknowledgmentOption) error
	Reject(options ...AcknowledgmentOption) error
	ReceivedAt() time.Time
	PublishedAt() time.Time
}

type OutboundPkg interface {
	UID() string
	Payload() []byte
	ContentType() string
	Headers() map[string]interface{}
	Destination() DeliveryDestination
}

func NewOutboundPkg(uid string, payload []byte, contentType string, destination DeliveryDestination, headers map[string]interface{}) OutboundPkg {
	return &outboundPkg{uid: uid, payload: payload, contentType: contentType, destination: destination, headers: headers}
}

type outboundPkg struct {
	uid         string
	payload     []byte
	contentType string
	headers     map[string]interface{}
	destination DeliveryDestination
}

func (o outboundPkg) UID() string {
	return o.uid
}

func (o outboundPkg) Payload() []byte {
	return o.payload
}

func (o outboundPkg) ContentType() string {
	return o.contentType
}

func (o outboundPkg) Headers() map[string]interface{} {
	return o.headers
}

func (o outboundPkg) Destination() DeliveryDestination {
	return o.destination
}

// DeliveryDestination with an empty topic delivers to the queue named by RoutingKey
type DeliveryDestination struct {
	DestinationTopic string
	RoutingKey       string
}

type AcknowledgmentOption func(options map[string]interface{})
