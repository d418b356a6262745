package deduplicator

import (
	"context"
	"fmt"

	"github.com/spf13/afero"

	"github.com/moyu-x/fotix/pkg/logger"
)

type RestoreStats struct {
	Restored int
	Skipped  int
	Failed   int
}

// Restore 将会话中移走的文件放回原位置，已存在同名文件时跳过
// delete 模式的记录无法恢复，计入 Skipped
func Restore(ctx context.Context, fs afero.Fs, journal Journal, sessionID string) (*RestoreStats, error) {
	if journal == nil {
		return nil, fmt.Errorf("恢复需要数据库记录")
	}
	if fs == nil {
		fs = afero.NewOsFs()
	}

	removals, err := journal.Removals(sessionID)
	if err != nil {
		return nil, err
	}
	logger.Get().Info().Msgf("会话 %s 共有 %d 个待恢复文件", sessionID, len(removals))

	d := &Deduplicator{fs: fs}
	stats := &RestoreStats{}

	for _, r := range removals {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		if r.StoredPath == "" {
			logger.Get().Warn().Msgf("文件已被永久删除，无法恢复: %s", r.OriginalPath)
			stats.Skipped++
			continue
		}

		exists, err := afero.Exists(fs, r.OriginalPath)
		if err != nil {
			stats.Failed++
			logger.Get().Error().Err(err).Msgf("检查原路径失败: %s", r.OriginalPath)
			continue
		}
		if exists {
			logger.Get().Warn().Msgf("原路径已存在文件，跳过: %s", r.OriginalPath)
			stats.Skipped++
			continue
		}

		if err := d.moveFile(r.StoredPath, r.OriginalPath); err != nil {
			stats.Failed++
			logger.Get().Error().Err(err).Msgf("恢复文件失败: %s", r.OriginalPath)
			continue
		}
		if err := journal.MarkRestored(r.ID); err != nil {
			logger.Get().Error().Err(err).Msgf("更新恢复状态失败: %s", r.OriginalPath)
		}

		stats.Restored++
		logger.Get().Info().Msgf("已恢复: %s", r.OriginalPath)
	}

	return stats, nil
}
