//go:build darwin

package scanner

import (
	"os"
	"syscall"
	"time"
)

// creationTime 在 macOS 上读取 Birthtimespec
func creationTime(info os.FileInfo) time.Time {
	if stat, ok := info.Sys().(*syscall.Stat_t); ok {
		if stat.Birthtimespec.Sec != 0 {
			return time.Unix(stat.Birthtimespec.Sec, stat.Birthtimespec.Nsec)
		}
	}
	return info.ModTime()
}
