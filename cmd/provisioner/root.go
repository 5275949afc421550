package main

import (
	"context"
	"os"

	"github.com/dipalisurve2377/organization-events-sub001/config"
	"github.com/dipalisurve2377/organization-events-sub001/log"
	"github.com/dipalisurve2377/organization-events-sub001/pubsub/message"
	"github.com/dipalisurve2377/organization-events-sub001/pubsub/transport"
	"github.com/dipalisurve2377/organization-events-sub001/pubsub/transport/amqp"
	"github.com/dipalisurve2377/organization-events-sub001/runtime/scheme"
	"github.com/dipalisurve2377/organization-events-sub001/saga/contracts"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// app is shared by the commands, it is filled before any of them runs
type app struct {
	configPath string
	conf       *config.Config
	logger     log.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:          "provisioner",
		Short:        "Provisions users and organizations in the identity provider and the record store",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			conf, err := config.Load(a.configPath)
			if err != nil {
				return err
			}

			a.conf = conf
			a.logger = log.NewLogger(os.Stderr, log.Format(conf.Log.Format), conf.LogLevel())

			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", os.Getenv(config.EnvPrefix+"_CONFIG"), "path to the YAML configuration file")

	cmd.AddCommand(newWorkerCmd(a), newTriggerCmd(a), newCancelCmd(a))

	return cmd
}

func (a *app) codec() *message.JsonCodec {
	registry := scheme.NewKnownTypesRegistry()
	contracts.Register(registry)

	return message.NewJsonCodec(registry)
}

// connect opens the transport and declares the exchange and the task queue bound to it
func (a *app) connect(ctx context.Context) (transport.Transport, transport.Queue, error) {
	amqpTransport := amqp.NewTransport(a.conf.AMQP.URL, a.logger)

	if err := amqpTransport.Connect(ctx); err != nil {
		return nil, nil, errors.Wrap(err, "connecting to amqp")
	}

	topic := amqp.Topic(a.conf.AMQP.Exchange, true, false, false, false)
	queue := amqp.Queue(a.conf.AMQP.TaskQueue, true, false, false, false, amqp.WithQueueType(amqp.QueueTypeQuorum))

	if err := amqpTransport.CreateTopic(ctx, topic); err != nil {
		return nil, nil, a.disconnect(ctx, amqpTransport, errors.Wrapf(err, "creating topic %s", topic.Name()))
	}

	if err := amqpTransport.CreateQueue(ctx, queue, amqp.QueueBind(topic.Name(), queue.Name(), false)); err != nil {
		return nil, nil, a.disconnect(ctx, amqpTransport, errors.Wrapf(err, "creating queue %s", queue.Name()))
	}

	return amqpTransport, queue, nil
}

func (a *app) disconnect(ctx context.Context, t transport.Transport, cause error) error {
	if err := t.Disconnect(ctx); err != nil {
		a.logger.Logf(log.ErrorLevel, "error disconnecting from amqp. %s", err)
	}

	return cause
}
