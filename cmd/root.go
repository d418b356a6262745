package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fotix",
	Short: "查找重复文件并保留最合适的一份",
	Long: `fotix 是一个命令行工具，用于查找并清理内容完全相同的重复文件。

主要功能:
- 遍历一个或多个目录，按大小和 xxHash 哈希识别重复文件
- 每组保留创建时间最早、名称不带副本标记的文件
- 其余文件可删除、移动到指定目录或放入回收目录
- 回收目录中的文件可按会话恢复
- 哈希缓存和操作记录存储在 SQLite 数据库中`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "配置文件 (默认 $HOME/.fotix/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别: debug, info, warn, error")
}
