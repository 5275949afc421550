package subscriber

import (
	"context"
	"sync"
)

type task interface {
	do()
}

type poolQueue chan chan task
type workerQueue chan task

type worker struct {
	ctx     context.Context
	pool    poolQueue
	myTasks workerQueue
}

func newWorker(ctx context.Context, pool poolQueue) worker {
	return worker{
		ctx:     ctx,
		pool:    pool,
		myTasks: make(workerQueue),
	}
}

func (w *worker) start(wGroup *sync.WaitGroup) {
	go func() {
		defer wGroup.Done()
		defer close(w.myTasks)
		for {
			w.pool <- w.myTasks

			select {
			case <-w.ctx.Done():
				return
			case task, open := <-w.myTasks:
				if !open {
					panic("someone explicitly closed the channel of this worker")
				}
				task.do()
			}
		}
	}()
}

func newWorkerPool(workersCount uint) *workerPool {
	return &workerPool{
		workersCount: workersCount,
		idle:         make(poolQueue, workersCount),
	}
}

// workerPool hands idle workers out through queue(). A worker returns itself after each task.
type workerPool struct {
	mutex sync.RWMutex

	stopped      bool
	workersCount uint
	idle         poolQueue
}

// busyWorkers return number of workers that are busy with processing a task and weren't returned to the pool
func (p *workerPool) busyWorkers() int {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	if p.stopped {
		return 0
	}

	return int(p.workersCount) - len(p.idle)
}

// start schedules defined number of workers
func (p *workerPool) start(ctx context.Context) {
	wGroup := &sync.WaitGroup{}

	workersCtx, stopWorkers := context.WithCancel(ctx)

	for i := uint(0); i < p.workersCount; i++ {
		worker := newWorker(workersCtx, p.idle)
		wGroup.Add(1)
		worker.start(wGroup)
	}

	go func() {
		<-ctx.Done()

		// every worker must be taken out of the pool before it is closed.
		// a busy worker is caught here once it returns itself after its task.
		for i := 0; i < int(p.workersCount); i++ {
			<-p.idle
		}

		close(p.idle)

		stopWorkers()

		wGroup.Wait()

		p.mutex.Lock()
		p.stopped = true
		p.mutex.Unlock()
	}()
}

// queue returns a chan of idle workers, each of them is ready to accept a task
func (p *workerPool) queue() poolQueue {
	return p.idle
}
