package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/moyu-x/fotix/internal"
	"github.com/moyu-x/fotix/pkg/deduplicator"
	"github.com/moyu-x/fotix/pkg/logger"
)

// Run 在终端界面中执行去重并显示进度
func Run(ctx context.Context, d *deduplicator.Deduplicator, dirs []string, mode internal.OperationMode, dryRun bool) (*deduplicator.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := newOutcome()
	go func() {
		done.complete(d.Process(ctx, dirs))
	}()

	logger.Get().Info().Msg("启动 TUI 界面")

	m := newModel(dirs, mode, dryRun, d.Progress(), done, cancel)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	final, err := p.Run()
	if err != nil {
		logger.Get().Error().Err(err).Msg("TUI 运行错误")
	}

	fm, ok := final.(*model)
	if !ok || fm.state != StateComplete {
		// 界面提前退出，等待后台处理结束
		cancel()
		msg := done.wait()
		if msg.err == nil {
			msg.err = fmt.Errorf("处理被中断")
		}
		return msg.result, msg.err
	}

	return fm.result, fm.err
}
