package dispatcher

import (
	"reflect"

	"github.com/dipalisurve2377/organization-events-sub001/pubsub/message/execution"
	"github.com/dipalisurve2377/organization-events-sub001/runtime/scheme"
)

// Dispatcher routes a decoded payload to the executors subscribed for its type
type Dispatcher interface {
	Match(obj interface{}) []execution.Executor
	SubscribeForCmd(obj interface{}, executor execution.Executor) Dispatcher
}

func NewDispatcher() Dispatcher {
	return &dispatcher{
		handlers: make(map[reflect.Type][]execution.Executor),
	}
}

type dispatcher struct {
	handlers map[reflect.Type][]execution.Executor
}

func (d dispatcher) Match(obj interface{}) []execution.Executor {
	structType := scheme.GetStructType(obj)

	return d.handlers[structType]
}

func (d *dispatcher) SubscribeForCmd(obj interface{}, executor execution.Executor) Dispatcher {
	structType := scheme.GetStructType(obj)

	executorPtr := reflect.ValueOf(executor).Pointer()

	for _, handler := range d.handlers[structType] {
		handlerPtr := reflect.ValueOf(handler).Pointer()

		//check if this handler was already registered. because it's a function - need to take value and then ptr of it.
		if handlerPtr == executorPtr {
			return d
		}
	}

	d.handlers[structType] = append(d.handlers[structType], executor)
	return d
}
