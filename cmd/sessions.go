package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/moyu-x/fotix/internal"
	"github.com/moyu-x/fotix/internal/app"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "列出历史去重会话",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sessions, err := app.ListSessions(cfgFile, logLevel)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(sessions) == 0 {
			fmt.Fprintln(out, "暂无会话记录")
			return nil
		}

		for _, s := range sessions {
			status := "进行中"
			if s.FinishedAt != nil {
				status = "已完成"
			}
			dry := ""
			if s.DryRun {
				dry = " (预览)"
			}
			fmt.Fprintf(out, "%s  %s  %-6s%s  移除 %d 个, 释放 %s  [%s]\n",
				s.ID, s.StartedAt.Local().Format("2006-01-02 15:04:05"), s.Mode, dry,
				s.Removed, internal.FormatBytes(s.FreedSpace), status)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
}
