package internal

import (
	"fmt"
	"time"
)

// 操作模式
type OperationMode string

const (
	ModeDelete OperationMode = "delete"
	ModeMove   OperationMode = "move"
	ModeTrash  OperationMode = "trash"
)

// ParseMode 校验操作模式
func ParseMode(s string) (OperationMode, error) {
	switch m := OperationMode(s); m {
	case ModeDelete, ModeMove, ModeTrash:
		return m, nil
	}
	return "", fmt.Errorf("未知的操作模式: %q (可选 delete, move, trash)", s)
}

// 处理统计
type ProcessStats struct {
	TotalScanned int   `json:"total_scanned" yaml:"total_scanned"`
	Groups       int   `json:"groups" yaml:"groups"`
	Duplicates   int   `json:"duplicates" yaml:"duplicates"`
	Deleted      int   `json:"deleted" yaml:"deleted"`
	Moved        int   `json:"moved" yaml:"moved"`
	Trashed      int   `json:"trashed" yaml:"trashed"`
	Errors       int   `json:"errors" yaml:"errors"`
	FreedSpace   int64 `json:"freed_space" yaml:"freed_space"`

	StartTime time.Time `json:"start_time" yaml:"start_time"`
	EndTime   time.Time `json:"end_time" yaml:"end_time"`
}

// 进度阶段
type Phase string

const (
	PhaseScanning Phase = "scanning"
	PhaseHashing  Phase = "hashing"
	PhaseActing   Phase = "acting"
	PhaseDone     Phase = "done"
)

// 进度更新
type ProgressUpdate struct {
	Phase       Phase
	Scanned     int
	GroupsDone  int
	GroupsTotal int
	Removed     int
	FreedSpace  int64
	CurrentFile string
}

// FormatBytes 以 KB/MB/GB 形式显示字节数
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
