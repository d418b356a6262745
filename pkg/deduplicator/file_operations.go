package deduplicator

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/moyu-x/fotix/pkg/logger"
)

// moveFile 优先使用 rename，失败时（例如跨卷）复制后删除
func (d *Deduplicator) moveFile(src, dst string) error {
	if err := d.fs.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}

	err := d.fs.Rename(src, dst)
	if err == nil {
		logger.Get().Debug().Msgf("移动文件: %s -> %s", src, dst)
		return nil
	}
	logger.Get().Debug().
		Err(err).
		Str("source", src).
		Str("destination", dst).
		Msg("直接重命名失败，尝试复制后删除")

	if err := d.copyFile(src, dst); err != nil {
		d.fs.Remove(dst)
		return err
	}

	if err := d.fs.Remove(src); err != nil {
		return fmt.Errorf("删除原文件失败: %w", err)
	}
	return nil
}

func (d *Deduplicator) copyFile(src, dst string) error {
	sourceFile, err := d.fs.Open(src)
	if err != nil {
		return fmt.Errorf("打开源文件失败: %w", err)
	}
	defer sourceFile.Close()

	info, err := sourceFile.Stat()
	if err != nil {
		return fmt.Errorf("读取源文件信息失败: %w", err)
	}

	destFile, err := d.fs.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("创建目标文件失败: %w", err)
	}

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		destFile.Close()
		return fmt.Errorf("复制文件内容失败: %w", err)
	}
	if err := destFile.Close(); err != nil {
		return fmt.Errorf("关闭目标文件失败: %w", err)
	}

	// 保留修改时间，恢复后文件的时间戳不变
	return d.fs.Chtimes(dst, info.ModTime(), info.ModTime())
}

// uniquePath 目标已存在时追加 _1、_2 ... 后缀
func (d *Deduplicator) uniquePath(dst string) (string, error) {
	ext := filepath.Ext(dst)
	base := strings.TrimSuffix(dst, ext)

	candidate := dst
	for i := 1; ; i++ {
		exists, err := afero.Exists(d.fs, candidate)
		if err != nil {
			return "", fmt.Errorf("检查目标文件失败: %w", err)
		}
		if !exists {
			return candidate, nil
		}
		if i == 1 {
			logger.Get().Warn().Msgf("目标文件已存在，尝试重命名: %s", dst)
		}
		if i > 100 {
			return "", fmt.Errorf("无法生成唯一文件名，已尝试 %d 次", i-1)
		}
		candidate = fmt.Sprintf("%s_%d%s", base, i, ext)
	}
}
