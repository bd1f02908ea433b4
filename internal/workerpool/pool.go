// Package workerpool is a bounded pool of goroutines draining a shared
// task channel, supervised by a tomb.Tomb so the whole pool tears down
// cleanly when its parent context dies.
package workerpool

import (
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

const defaultTaskChanSize = 100

// Func is the work a pool executes for each task handed to AddTask.
type Func func(t *tomb.Tomb, task any) error

// Pool runs up to n goroutines pulling tasks off an internal channel and
// handing them to a Func.
type Pool struct {
	n     int
	tasks chan any
	work  Func
}

// New returns a pool sized for n concurrent workers.
func New(n int) *Pool {
	return &Pool{n: n, tasks: make(chan any, defaultTaskChanSize)}
}

// AddTask enqueues task for the next free worker.
func (p *Pool) AddTask(task any) {
	p.tasks <- task
}

// Run starts n workers under t and returns. Each worker runs until t
// starts dying or until work returns an error; an error ends that worker
// and, through t, kills the tomb. Workers are not restarted.
func (p *Pool) Run(t *tomb.Tomb, work Func) {
	p.work = work
	log.Debug().Int("workers", p.n).Msg("workerpool: starting")
	for i := 0; i < p.n; i++ {
		t.Go(p.loop(t))
	}
}

func (p *Pool) loop(t *tomb.Tomb) func() error {
	return func() error {
		for {
			select {
			case <-t.Dying():
				return nil
			case task := <-p.tasks:
				if err := p.work(t, task); err != nil {
					log.Error().Err(err).Msg("workerpool: worker exiting on error")
					return err
				}
			}
		}
	}
}
