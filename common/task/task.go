package task

import (
	"context"
	"sync"

	"github.com/strombase/strom/common"
	E "github.com/strombase/strom/common/exceptions"
)

type taskItem struct {
	Name string
	Run  func(ctx context.Context) error
}

type Group struct {
	tasks    []taskItem
	cleanup  func()
	fastFail bool
}

func (g *Group) Append(name string, f func(ctx context.Context) error) {
	g.tasks = append(g.tasks, taskItem{Name: name, Run: f})
}

func (g *Group) Append0(f func(ctx context.Context) error) {
	g.tasks = append(g.tasks, taskItem{Run: f})
}

func (g *Group) Cleanup(f func()) {
	g.cleanup = f
}

func (g *Group) FastFail() {
	g.fastFail = true
}

func (g *Group) Run(contextList ...context.Context) error {
	ctx := context.Background()
	if len(contextList) > 0 {
		ctx = contextList[0]
	}
	taskContext, taskCancel := context.WithCancel(ctx)
	defer taskCancel()

	var (
		access      sync.Mutex
		returnError error
		taskCount   = len(g.tasks)
		done        = make(chan struct{})
	)
	for _, task := range g.tasks {
		currentTask := task
		go func() {
			err := currentTask.Run(taskContext)
			access.Lock()
			if err != nil && !common.Done(taskContext) {
				if currentTask.Name != "" {
					err = E.Cause(err, currentTask.Name)
				}
				returnError = E.Errors(returnError, err)
				if g.fastFail {
					taskCancel()
				}
			}
			taskCount--
			if taskCount == 0 {
				close(done)
			}
			access.Unlock()
		}()
	}
	select {
	case <-done:
	case <-ctx.Done():
	}
	if g.cleanup != nil {
		g.cleanup()
	}
	// on the cancellation path tasks may still be recording their results
	access.Lock()
	defer access.Unlock()
	if returnError != nil {
		return returnError
	}
	return ctx.Err()
}
