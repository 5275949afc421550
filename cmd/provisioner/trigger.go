package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/dipalisurve2377/organization-events-sub001/database"
	"github.com/dipalisurve2377/organization-events-sub001/log"
	"github.com/dipalisurve2377/organization-events-sub001/saga"
	"github.com/dipalisurve2377/organization-events-sub001/workflow"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type triggerOpts struct {
	payload     string
	payloadFile string
	// track registers the instance in the saga store so a second trigger of an in flight key is refused
	track bool
}

func newTriggerCmd(a *app) *cobra.Command {
	opts := &triggerOpts{}

	cmd := &cobra.Command{
		Use:       "trigger <workflow>",
		Short:     "Start a provisioning saga and print its instance id",
		Example:   `  provisioner trigger CreateOrganization --payload '{"identifier":"acme","name":"Acme Inc","notify_email":"ops@acme.io"}'`,
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: workflow.Names(),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := opts.read()
			if err != nil {
				return err
			}

			input, err := parseInput(args[0], payload)
			if err != nil {
				return err
			}

			id, err := a.trigger(cmd.Context(), args[0], input, opts.track)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), id)
			return err
		},
	}

	cmd.Flags().StringVarP(&opts.payload, "payload", "p", "", "saga input as a JSON object")
	cmd.Flags().StringVarP(&opts.payloadFile, "payload-file", "f", "", "file with the saga input as a JSON object")
	cmd.Flags().BoolVar(&opts.track, "track", false, "register the instance in the saga store before publishing")

	return cmd
}

func newCancelCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <instance-id>",
		Short: "Request the cancellation of a running saga",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			amqpTransport, _, err := a.connect(ctx)
			if err != nil {
				return err
			}

			client := saga.NewClient(amqpTransport, a.codec(), a.logger, saga.WithTopic(a.conf.AMQP.Exchange))

			return a.disconnect(ctx, amqpTransport, client.CancelSaga(ctx, a.conf.AMQP.TaskQueue, args[0]))
		},
	}
}

func (o *triggerOpts) read() ([]byte, error) {
	switch {
	case o.payload != "" && o.payloadFile != "":
		return nil, errors.New("--payload and --payload-file are mutually exclusive")
	case o.payloadFile != "":
		data, err := os.ReadFile(o.payloadFile)
		if err != nil {
			return nil, errors.Wrapf(err, "reading payload file %s", o.payloadFile)
		}
		return data, nil
	case o.payload != "":
		return []byte(o.payload), nil
	default:
		return nil, errors.New("a payload is required, use --payload or --payload-file")
	}
}

// parseInput decodes a payload into the input type of the workflow, unknown fields are refused
func parseInput(name string, payload []byte) (workflow.Input, error) {
	input, err := workflow.NewInput(name)
	if err != nil {
		return nil, err
	}

	decoder := json.NewDecoder(bytes.NewReader(payload))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(input); err != nil {
		return nil, errors.Wrapf(err, "decoding payload of %s", name)
	}

	return input, nil
}

func (a *app) trigger(ctx context.Context, name string, input workflow.Input, track bool) (string, error) {
	amqpTransport, _, err := a.connect(ctx)
	if err != nil {
		return "", err
	}

	clientOpts := []saga.ClientOption{saga.WithTopic(a.conf.AMQP.Exchange)}

	if track {
		dbConf, err := a.conf.DatabaseConfig()
		if err != nil {
			return "", a.disconnect(ctx, amqpTransport, err)
		}

		db, err := database.Open(ctx, dbConf)
		if err != nil {
			return "", a.disconnect(ctx, amqpTransport, err)
		}

		defer func() {
			if err := db.Close(); err != nil {
				a.logger.Logf(log.ErrorLevel, "error closing database pool. %s", err)
			}
		}()

		sagaStore, err := saga.NewSQLSagaStore(db, dbConf.Driver)
		if err != nil {
			return "", a.disconnect(ctx, amqpTransport, err)
		}

		clientOpts = append(clientOpts, saga.WithClientStore(sagaStore))
	}

	client := saga.NewClient(amqpTransport, a.codec(), a.logger, clientOpts...)
	policy := a.conf.RetryPolicy()

	id, err := workflow.Trigger(ctx, client, a.conf.AMQP.TaskQueue, name, input, &policy)

	return id, a.disconnect(ctx, amqpTransport, err)
}
