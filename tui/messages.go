package tui

import (
	"github.com/moyu-x/fotix/internal"
	"github.com/moyu-x/fotix/pkg/deduplicator"
)

type progressMsg internal.ProgressUpdate

type progressClosedMsg struct{}

type processCompleteMsg struct {
	result *deduplicator.Result
	err    error
}

// outcome 后台处理的结果，finished 关闭后 msg 可读
type outcome struct {
	msg      processCompleteMsg
	finished chan struct{}
}

func newOutcome() *outcome {
	return &outcome{finished: make(chan struct{})}
}

func (o *outcome) complete(res *deduplicator.Result, err error) {
	o.msg = processCompleteMsg{result: res, err: err}
	close(o.finished)
}

func (o *outcome) wait() processCompleteMsg {
	<-o.finished
	return o.msg
}
