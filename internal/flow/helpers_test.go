package flow

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/maxkimambo/taskflow/internal/task"
)

// controllableTask allows precise control over execution behavior for testing
type controllableTask struct {
	delay      time.Duration
	output     any
	err        error
	panicValue any
	ignoreCtx  bool

	mutex    sync.Mutex
	calls    int
	inputs   []task.Input
	started  time.Time
	finished time.Time
}

func newControllableTask(output any, delay time.Duration) *controllableTask {
	return &controllableTask{output: output, delay: delay}
}

func (c *controllableTask) Invoke(ctx context.Context, in task.Input) (any, error) {
	c.mutex.Lock()
	c.calls++
	c.inputs = append(c.inputs, in)
	c.started = time.Now()
	c.mutex.Unlock()

	defer func() {
		c.mutex.Lock()
		c.finished = time.Now()
		c.mutex.Unlock()
	}()

	if c.delay > 0 {
		if c.ignoreCtx {
			time.Sleep(c.delay)
		} else {
			select {
			case <-time.After(c.delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	if c.panicValue != nil {
		panic(c.panicValue)
	}
	if c.err != nil {
		return nil, c.err
	}
	return c.output, nil
}

func (c *controllableTask) Calls() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.calls
}

func (c *controllableTask) LastInput() task.Input {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if len(c.inputs) == 0 {
		return nil
	}
	return c.inputs[len(c.inputs)-1]
}

func (c *controllableTask) Window() (time.Time, time.Time) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.started, c.finished
}

func quietLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func newTestEngine(opts ...Option) *Engine {
	return NewEngine(append([]Option{WithLogger(quietLogger())}, opts...)...)
}

func echo(v any) task.Task {
	return task.Func(func(ctx context.Context, in task.Input) (any, error) {
		return v, nil
	})
}

// captureHook records log entries matching keep
type captureHook struct {
	keep func(*logrus.Entry) bool

	mutex   sync.Mutex
	entries []*logrus.Entry
}

func (h *captureHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *captureHook) Fire(entry *logrus.Entry) error {
	if h.keep != nil && !h.keep(entry) {
		return nil
	}
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.entries = append(h.entries, entry)
	return nil
}

func (h *captureHook) Len() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.entries)
}
