package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/moyu-x/fotix/internal"
	"github.com/moyu-x/fotix/internal/app"
	"github.com/moyu-x/fotix/pkg/logger"
)

var dedupCmd = &cobra.Command{
	Use:   "dedup <directories...>",
	Short: "检测并清理重复文件",
	Long: `遍历指定目录中的所有文件，使用 xxHash 计算哈希值并检测重复文件。
每组重复文件保留一份：创建时间最早者优先，其次是不带 "(1)"、"- Copy" 等
副本标记的文件名，最后按路径字典序。其余文件按 --mode 删除、移动或放入回收目录。`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDedup,
}

func runDedup(cmd *cobra.Command, args []string) error {
	mode, _ := cmd.Flags().GetString("mode")
	targetDir, _ := cmd.Flags().GetString("target-dir")
	verbose, _ := cmd.Flags().GetBool("verbose")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	reportPath, _ := cmd.Flags().GetString("report")
	useTUI, _ := cmd.Flags().GetBool("tui")
	kinds, _ := cmd.Flags().GetStringSlice("kind")
	workers, _ := cmd.Flags().GetInt("workers")
	includeEmpty, _ := cmd.Flags().GetBool("include-empty")

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	res, err := app.RunDedup(ctx, &app.DedupOptions{
		SourceDirs: args,
		Mode:       mode,
		TargetDir:  targetDir,
		ConfigFile: cfgFile,
		LogLevel:   logLevel,
		ReportPath: reportPath,
		Kinds:      kinds,
		Workers:    workers,
		Verbose:    verbose,
		DryRun:     dryRun,
		TUI:        useTUI,

		IncludeEmpty: includeEmpty,
	})
	if err != nil {
		return err
	}

	if !useTUI {
		printFinalStats(res.SessionID, &res.Stats, args)
	}
	return nil
}

// signalContext 收到 Ctrl+C 或 SIGTERM 时取消处理
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func init() {
	dedupCmd.Flags().StringP("mode", "m", string(internal.ModeTrash), "操作模式: delete, move 或 trash")
	dedupCmd.Flags().StringP("target-dir", "t", "", "移动模式的目标目录")
	dedupCmd.Flags().BoolP("verbose", "v", false, "输出每组的处理详情")
	dedupCmd.Flags().Bool("dry-run", false, "预览模式，不实际修改文件")
	dedupCmd.Flags().String("report", "", "将处理结果写入报告文件 (.yaml/.yml/.json)")
	dedupCmd.Flags().Bool("tui", false, "使用终端界面显示进度")
	dedupCmd.Flags().StringSlice("kind", nil, "只处理指定 MIME 类型的文件，可重复")
	dedupCmd.Flags().Int("workers", 0, "哈希计算并发数 (默认取配置)")
	dedupCmd.Flags().Bool("include-empty", false, "空文件也参与去重")

	rootCmd.AddCommand(dedupCmd)
}

func printFinalStats(sessionID string, stats *internal.ProcessStats, dirs []string) {
	elapsed := stats.EndTime.Sub(stats.StartTime)

	logger.Get().Info().Msg("========== 处理完成 ==========")
	logger.Get().Info().Msgf("会话: %s", sessionID)
	logger.Get().Info().Msgf("扫描目录数: %d", len(dirs))
	for i, dir := range dirs {
		logger.Get().Info().Msgf("  [%d] %s", i+1, dir)
	}
	logger.Get().Info().Msgf("总文件数: %d", stats.TotalScanned)
	logger.Get().Info().Msgf("重复组: %d", stats.Groups)
	logger.Get().Info().Msgf("重复文件: %d 个文件", stats.Duplicates)
	logger.Get().Info().Msgf("  - 已删除: %d 个", stats.Deleted)
	logger.Get().Info().Msgf("  - 已移动: %d 个", stats.Moved)
	logger.Get().Info().Msgf("  - 已回收: %d 个", stats.Trashed)
	logger.Get().Info().Msgf("错误: %d 个", stats.Errors)
	logger.Get().Info().Msgf("释放空间: %s", internal.FormatBytes(stats.FreedSpace))
	logger.Get().Info().Msgf("总耗时: %v", elapsed)
	logger.Get().Info().Msg("============================")
}
