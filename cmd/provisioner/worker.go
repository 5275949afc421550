package main

import (
	"context"
	"net/http"
	"time"

	"github.com/dipalisurve2377/organization-events-sub001/activity"
	"github.com/dipalisurve2377/organization-events-sub001/database"
	"github.com/dipalisurve2377/organization-events-sub001/identity"
	"github.com/dipalisurve2377/organization-events-sub001/log"
	"github.com/dipalisurve2377/organization-events-sub001/notify"
	"github.com/dipalisurve2377/organization-events-sub001/pubsub/dispatcher"
	"github.com/dipalisurve2377/organization-events-sub001/pubsub/message/execution"
	"github.com/dipalisurve2377/organization-events-sub001/pubsub/subscriber"
	"github.com/dipalisurve2377/organization-events-sub001/saga"
	"github.com/dipalisurve2377/organization-events-sub001/saga/api/handlers/status"
	"github.com/dipalisurve2377/organization-events-sub001/saga/handlers"
	"github.com/dipalisurve2377/organization-events-sub001/saga/mutex"
	"github.com/dipalisurve2377/organization-events-sub001/store"
	"github.com/dipalisurve2377/organization-events-sub001/workflow"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

func newWorkerCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Consume the task queue and run the provisioning sagas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runWorker(cmd.Context())
		},
	}
}

func (a *app) runWorker(ctx context.Context) error {
	if err := a.conf.WorkerRequirements(); err != nil {
		return err
	}

	dbConf, err := a.conf.DatabaseConfig()
	if err != nil {
		return err
	}

	db, err := database.Open(ctx, dbConf)
	if err != nil {
		return err
	}

	defer func() {
		if err := db.Close(); err != nil {
			a.logger.Logf(log.ErrorLevel, "error closing database pool. %s", err)
		}
	}()

	records, err := store.NewSQLStore(db, dbConf.Driver)
	if err != nil {
		return errors.Wrap(err, "creating record store")
	}

	sagaStore, err := saga.NewSQLSagaStore(db, dbConf.Driver)
	if err != nil {
		return errors.Wrap(err, "creating saga store")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	metrics, err := saga.NewMetrics(registry)
	if err != nil {
		return errors.Wrap(err, "registering metrics")
	}

	runner := saga.NewRunner(sagaStore, mutex.NewSqlMutex(db, dbConf.Driver, a.logger), metrics, a.logger)

	idp := identity.NewClient(a.conf.IdentityConfig(), a.logger)
	notifier := notify.NewNotifier(a.conf.SMTP.From, notify.NewSMTPMailer(a.conf.SMTPConfig()), a.logger)

	workflow.Register(runner, activity.NewActivities(idp, records, notifier, a.logger))

	msgDispatcher := dispatcher.NewDispatcher()
	handlers.NewSagaControlHandler(runner).Subscribe(msgDispatcher)

	processor := subscriber.NewMessageProcessor(a.codec(), execution.NewMessageExecutionCtxFactory(a.logger), msgDispatcher, a.logger)

	amqpTransport, queue, err := a.connect(ctx)
	if err != nil {
		return err
	}

	if a.conf.HTTP.Addr != "" {
		server := a.httpServer(sagaStore, registry)

		go func() {
			a.logger.Logf(log.InfoLevel, "serving saga status and metrics on %s", server.Addr)

			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Logf(log.ErrorLevel, "http server stopped. %s", err)
			}
		}()

		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*10)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				a.logger.Logf(log.ErrorLevel, "error shutting down http server. %s", err)
			}
		}()
	}

	return subscriber.NewSubscriber(amqpTransport, processor, a.logger, subscriber.WithConfig(a.conf.SubscriberConfig())).Run(ctx, queue)
}

func (a *app) httpServer(sagaStore saga.Store, registry *prometheus.Registry) *http.Server {
	router := mux.NewRouter()

	status.NewStatusHandler(a.logger, status.NewStatusService(sagaStore)).Register(router)
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	return &http.Server{
		Addr:              a.conf.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: time.Second * 5,
	}
}
