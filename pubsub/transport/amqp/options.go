package amqp

import (
	"github.com/dipalisurve2377/organization-events-sub001/pubsub/transport"
	"github.com/pkg/errors"
)

type consumeOptions struct {
	Exclusive     bool
	NoLocal       bool
	NoWait        bool
	PrefetchCount uint
}

type sendOptions struct {
	Mandatory bool
	Immediate bool
}

// optionsOf asserts that an option was handed the options struct of this transport
func optionsOf[T any](options interface{}, optName, typeName string) (*T, error) {
	opts, ok := options.(*T)
	if !ok {
		return nil, errors.Wrapf(errors.Errorf("this option must be called on amqp.%s type", typeName), "calling %s opt", optName)
	}

	return opts, nil
}

// WithQosPrefetchCount bounds deliveries the broker pushes before they are acknowledged.
// The subscriber sets it to the number of sagas it can run at once.
func WithQosPrefetchCount(limit uint) transport.ConsumeOpt {
	return func(options interface{}) error {
		opts, err := optionsOf[consumeOptions](options, "WithQosPrefetchCount", "consumeOptions")
		if err != nil {
			return err
		}

		opts.PrefetchCount = limit

		return nil
	}
}

func WithExclusive() transport.ConsumeOpt {
	return func(options interface{}) error {
		opts, err := optionsOf[consumeOptions](options, "WithExclusive", "consumeOptions")
		if err != nil {
			return err
		}

		opts.Exclusive = true

		return nil
	}
}

// WithMandatory makes the broker return a saga command that no task queue is bound for
func WithMandatory() transport.SendOpt {
	return func(options interface{}) error {
		opts, err := optionsOf[sendOptions](options, "WithMandatory", "sendOptions")
		if err != nil {
			return err
		}

		opts.Mandatory = true

		return nil
	}
}
