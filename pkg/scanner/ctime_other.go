//go:build !darwin && !windows

package scanner

import (
	"os"
	"time"
)

// creationTime 其他平台的 Stat_t 不提供创建时间，使用修改时间
func creationTime(info os.FileInfo) time.Time {
	return info.ModTime()
}
