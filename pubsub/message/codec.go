package message

import (
	"encoding/json"

	"github.com/dipalisurve2377/organization-events-sub001/pubsub/transport"
	"github.com/dipalisurve2377/organization-events-sub001/runtime/scheme"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

const ContentType = "application/json"

//go:generate mockgen --build_flags=--mod=mod -destination ../../testing/mocks/pubsub/message/codec.go -package message . Marshaller,Decoder

type Marshaller interface {
	Marshal(msg *Message) ([]byte, error)
}

type Decoder interface {
	Decode(inPkg transport.IncomingPkg) (*Message, error)
}

type DecoderErr struct {
	error
}

func WithDecoderErr(err error) error {
	return DecoderErr{err}
}

// NewJsonCodec marshals messages into JSON envelopes and decodes them back into registered types
func NewJsonCodec(knownTypes scheme.KnownTypesRegistry) *JsonCodec {
	return &JsonCodec{knownTypes: knownTypes}
}

type JsonCodec struct {
	knownTypes scheme.KnownTypesRegistry
}

func (j JsonCodec) Marshal(msg *Message) ([]byte, error) {
	if msg.Name == "" {
		gk, err := j.knownTypes.ObjectKind(msg.Payload)
		if err != nil {
			return nil, errors.Wrapf(err, "resolving name of message %s", msg.ID)
		}
		msg.Name = gk.String()
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, errors.Wrapf(err, "marshaling message %s", msg.ID)
	}

	return payload, nil
}

func (j JsonCodec) Decode(inPkg transport.IncomingPkg) (*Message, error) {
	var decoded Message

	if err := json.Unmarshal(inPkg.Payload(), &decoded); err != nil {
		return nil, WithDecoderErr(errors.Wrap(err, "unmarshaling envelope"))
	}

	gk, err := scheme.ParseGroupKind(decoded.Name)
	if err != nil {
		return nil, WithDecoderErr(errors.WithStack(err))
	}

	payload, err := j.knownTypes.NewObject(gk)
	if err != nil {
		return nil, WithDecoderErr(errors.Wrapf(err, "error decoding pkg payload into message"))
	}

	// Payload is map[string]interface{} now, it is filled into the registered type
	if err := DecodeInto(decoded.Payload, payload); err != nil {
		return nil, WithDecoderErr(errors.Wrapf(err, "decoding payload into %s", decoded.Name))
	}

	decoded.Payload = payload
	decoded.OriginSource = inPkg.Origin()
	decoded.ReceivedAt = inPkg.ReceivedAt()

	if decoded.Headers == nil {
		decoded.Headers = Headers{}
	}

	for k, v := range inPkg.Headers() {
		decoded.Headers[k] = v
	}

	return &decoded, nil
}

// DecodeInto fills target, a pointer, from generic JSON data using json tags
func DecodeInto(data interface{}, target interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:    "json",
		Squash:     true,
		Result:     target,
		DecodeHook: mapstructure.StringToTimeDurationHookFunc(),
	})

	if err != nil {
		return errors.WithStack(err)
	}

	return decoder.Decode(data)
}
