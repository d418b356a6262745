package cmd

import (
	"github.com/spf13/cobra"

	"github.com/moyu-x/fotix/internal/app"
	"github.com/moyu-x/fotix/pkg/logger"
)

var restoreCmd = &cobra.Command{
	Use:   "restore <session-id>",
	Short: "把 trash 模式回收的文件移回原位置",
	Long: `根据数据库中的操作记录，把指定会话放入回收目录的文件移回原路径。
原路径已存在文件时跳过，不会覆盖。`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd.Context())
		defer stop()

		stats, err := app.RunRestore(ctx, cfgFile, logLevel, args[0])
		if err != nil {
			return err
		}

		logger.Get().Info().Msgf("恢复完成: 已恢复 %d 个, 跳过 %d 个, 失败 %d 个",
			stats.Restored, stats.Skipped, stats.Failed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(restoreCmd)
}
