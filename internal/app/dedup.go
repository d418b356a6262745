package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/moyu-x/fotix/internal"
	"github.com/moyu-x/fotix/pkg/config"
	"github.com/moyu-x/fotix/pkg/database"
	"github.com/moyu-x/fotix/pkg/deduplicator"
	"github.com/moyu-x/fotix/pkg/logger"
	"github.com/moyu-x/fotix/pkg/report"
	"github.com/moyu-x/fotix/pkg/scanner"
	"github.com/moyu-x/fotix/pkg/selector"
	"github.com/moyu-x/fotix/tui"
)

type DedupOptions struct {
	SourceDirs []string
	Mode       string
	TargetDir  string
	ConfigFile string
	LogLevel   string
	ReportPath string
	Kinds      []string
	Workers    int
	Verbose    bool
	DryRun     bool
	TUI        bool

	// IncludeEmpty 空文件也参与去重，与配置 scanner.include_empty 取或
	IncludeEmpty bool
}

// setup 加载配置并初始化日志，TUI 模式下控制台日志关闭以免干扰界面
func setup(configFile, logLevel string, verbose, quiet bool) (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("加载配置失败: %w", err)
	}

	level := cfg.Logging.Level
	if logLevel != "" {
		level = logLevel
	}
	if verbose {
		level = "debug"
	}

	var out io.Writer = os.Stdout
	if quiet {
		out = io.Discard
	}
	if err := logger.InitWithWriter(level, cfg.Logging.File, out); err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}

	logger.Get().Debug().Msg("加载配置完成")
	return cfg, nil
}

func buildSelector(cfg *config.Config) (*selector.Selector, error) {
	if len(cfg.Selector.ExtraPatterns) == 0 {
		return selector.New(), nil
	}
	extra, err := selector.CompilePatterns(cfg.Selector.ExtraPatterns)
	if err != nil {
		return nil, fmt.Errorf("副本名称规则无效: %w", err)
	}
	logger.Get().Info().Msgf("追加 %d 条副本名称规则", len(extra))
	return selector.WithExtra(extra...), nil
}

func RunDedup(ctx context.Context, opts *DedupOptions) (*deduplicator.Result, error) {
	cfg, err := setup(opts.ConfigFile, opts.LogLevel, opts.Verbose, opts.TUI)
	if err != nil {
		return nil, err
	}

	mode, err := internal.ParseMode(opts.Mode)
	if err != nil {
		return nil, err
	}

	sel, err := buildSelector(cfg)
	if err != nil {
		return nil, err
	}

	logger.Get().Info().Msgf("数据库路径: %s", cfg.Database.Path)
	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	backupDir, err := database.ExpandPath(cfg.Backup.Dir)
	if err != nil {
		return nil, err
	}

	workers := cfg.Performance.Workers
	if opts.Workers > 0 {
		workers = opts.Workers
	}
	kinds := cfg.Scanner.Kinds
	if len(opts.Kinds) > 0 {
		kinds = opts.Kinds
	}

	logger.Get().Info().Msgf("操作模式: %s", mode)
	if opts.TargetDir != "" {
		logger.Get().Info().Msgf("目标目录: %s", opts.TargetDir)
	}
	if opts.DryRun {
		logger.Get().Info().Msg("=== 预览模式，不会实际修改文件 ===")
	}

	dedup, err := deduplicator.NewDeduplicator(deduplicator.Options{
		Journal:   db,
		Selector:  sel,
		Mode:      mode,
		TargetDir: opts.TargetDir,
		BackupDir: backupDir,
		DryRun:    opts.DryRun,
		Workers:   workers,
		Scanner: scanner.Options{
			IncludeHidden:  cfg.Scanner.IncludeHidden,
			FollowSymlinks: cfg.Scanner.FollowSymlinks,
			MinSize:        cfg.Scanner.MinSize,
			IncludeEmpty:   cfg.Scanner.IncludeEmpty || opts.IncludeEmpty,
			Kinds:          kinds,
		},
	})
	if err != nil {
		return nil, err
	}

	var res *deduplicator.Result
	if opts.TUI {
		res, err = tui.Run(ctx, dedup, opts.SourceDirs, mode, opts.DryRun)
	} else {
		go drainProgress(dedup.Progress())
		res, err = dedup.Process(ctx, opts.SourceDirs)
	}
	if err != nil {
		return res, err
	}

	if opts.ReportPath != "" {
		if err := report.Write(opts.ReportPath, report.New(res, mode, opts.DryRun)); err != nil {
			return res, err
		}
		logger.Get().Info().Msgf("报告已写入: %s", opts.ReportPath)
	}

	return res, nil
}

// drainProgress 非 TUI 模式下把阶段变化写入调试日志
func drainProgress(ch <-chan internal.ProgressUpdate) {
	var last internal.Phase
	for u := range ch {
		if u.Phase != last {
			logger.Get().Debug().Msgf("进入阶段: %s", u.Phase)
			last = u.Phase
		}
	}
}
