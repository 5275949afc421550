package saga

import (
	"context"
	"encoding/json"

	"github.com/dipalisurve2377/organization-events-sub001/log"
	"github.com/dipalisurve2377/organization-events-sub001/pubsub/message"
	"github.com/dipalisurve2377/organization-events-sub001/pubsub/transport"
	"github.com/dipalisurve2377/organization-events-sub001/saga/contracts"
	"github.com/pkg/errors"
)

type StartOptions struct {
	// TaskQueue is the queue the workers of this saga consume
	TaskQueue  string
	InstanceID string
	// Args is the workflow input, any value that encodes into a JSON object
	Args        interface{}
	RetryPolicy *RetryPolicy
}

type ClientOption func(c *Client)

// WithClientStore makes StartSaga refuse an instance id that is in flight and register the instance right away
func WithClientStore(store Store) ClientOption {
	return func(c *Client) {
		c.store = store
	}
}

// WithTopic publishes commands to the exchange instead of routing them directly to the queue
func WithTopic(topic string) ClientOption {
	return func(c *Client) {
		c.topic = topic
	}
}

// Client triggers sagas. Commands are published and the instance id is returned without waiting for the outcome.
type Client struct {
	transport  transport.Transport
	marshaller message.Marshaller
	store      Store
	topic      string
	logger     log.Logger
}

func NewClient(transport transport.Transport, marshaller message.Marshaller, logger log.Logger, opts ...ClientOption) *Client {
	c := &Client{transport: transport, marshaller: marshaller, logger: logger}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Client) StartSaga(ctx context.Context, operation string, opts StartOptions) (string, error) {
	if operation == "" {
		return "", errors.New("operation is required")
	}

	if opts.TaskQueue == "" {
		return "", errors.Errorf("task queue is required to start %s", operation)
	}

	if opts.InstanceID == "" {
		return "", errors.Errorf("instance id is required to start %s", operation)
	}

	if opts.RetryPolicy != nil {
		if err := opts.RetryPolicy.Validate(); err != nil {
			return "", errors.Wrapf(err, "invalid retry policy of %s", opts.InstanceID)
		}
	}

	args, err := toArgs(opts.Args)
	if err != nil {
		return "", errors.Wrapf(err, "encoding arguments of %s", opts.InstanceID)
	}

	if c.store != nil {
		if err := c.register(ctx, operation, opts, args); err != nil {
			return "", err
		}
	}

	cmd := &contracts.StartSagaCommand{
		InstanceID:  opts.InstanceID,
		Name:        operation,
		TaskQueue:   opts.TaskQueue,
		Args:        args,
		RetryPolicy: retryPolicyToContract(opts.RetryPolicy),
	}

	if err := c.send(ctx, opts.TaskQueue, cmd); err != nil {
		if c.store != nil {
			// no worker will ever pick the registered instance up
			if delErr := c.store.Delete(context.WithoutCancel(ctx), opts.InstanceID); delErr != nil {
				c.logger.Logf(log.ErrorLevel, "removing saga %s after a failed send. %s", opts.InstanceID, delErr)
			}
		}

		return "", errors.Wrapf(err, "starting saga %s", opts.InstanceID)
	}

	c.logger.Logf(log.InfoLevel, "saga %s of %s sent to %s", opts.InstanceID, operation, opts.TaskQueue)

	return opts.InstanceID, nil
}

func (c *Client) CancelSaga(ctx context.Context, taskQueue, instanceID string) error {
	if taskQueue == "" || instanceID == "" {
		return errors.New("task queue and instance id are required to cancel a saga")
	}

	if err := c.send(ctx, taskQueue, &contracts.CancelSagaCommand{InstanceID: instanceID}); err != nil {
		return errors.Wrapf(err, "canceling saga %s", instanceID)
	}

	return nil
}

func (c *Client) register(ctx context.Context, operation string, opts StartOptions, args map[string]interface{}) error {
	existing, err := c.store.GetById(ctx, opts.InstanceID)
	if err != nil {
		return errors.Wrapf(err, "loading saga %s", opts.InstanceID)
	}

	if existing != nil {
		if !existing.Status.Terminal() {
			return errors.Wrapf(ErrAlreadyInFlight, "saga %s is %s", opts.InstanceID, existing.Status)
		}

		if err := c.store.Delete(ctx, existing.ID); err != nil {
			return errors.Wrapf(err, "replacing finished saga %s", existing.ID)
		}
	}

	policy := RetryPolicy{}
	if opts.RetryPolicy != nil {
		policy = *opts.RetryPolicy
	}

	instance := NewInstance(opts.InstanceID, operation, opts.TaskQueue, args, policy.WithDefaults())

	if err := c.store.Create(ctx, instance); err != nil {
		return errors.Wrapf(err, "creating saga %s", opts.InstanceID)
	}

	return nil
}

func (c *Client) send(ctx context.Context, taskQueue string, payload interface{}) error {
	msg := message.NewCommand(payload, nil)

	data, err := c.marshaller.Marshal(msg)
	if err != nil {
		return errors.WithStack(err)
	}

	destination := transport.DeliveryDestination{DestinationTopic: c.topic, RoutingKey: taskQueue}
	outbound := transport.NewOutboundPkg(msg.ID, data, message.ContentType, destination, msg.Headers)

	return c.transport.Send(ctx, outbound)
}

func toArgs(args interface{}) (map[string]interface{}, error) {
	if args == nil {
		return map[string]interface{}{}, nil
	}

	data, err := json.Marshal(args)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	result := make(map[string]interface{})
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, errors.Wrap(err, "arguments must encode into a JSON object")
	}

	return result, nil
}
