package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/moyu-x/fotix/internal"
	"github.com/moyu-x/fotix/pkg/deduplicator"
	"github.com/moyu-x/fotix/pkg/selector"
)

type Report struct {
	Session string                `json:"session" yaml:"session"`
	Mode    string                `json:"mode" yaml:"mode"`
	DryRun  bool                  `json:"dry_run" yaml:"dry_run"`
	Stats   internal.ProcessStats `json:"stats" yaml:"stats"`
	Groups  []GroupReport         `json:"groups" yaml:"groups"`
}

type GroupReport struct {
	Hash    string                `json:"hash" yaml:"hash"`
	Kept    selector.FileRecord   `json:"kept" yaml:"kept"`
	Removed []selector.FileRecord `json:"removed" yaml:"removed"`
	Failed  map[string]string     `json:"failed,omitempty" yaml:"failed,omitempty"`
}

// New 由去重结果生成报告
func New(res *deduplicator.Result, mode internal.OperationMode, dryRun bool) *Report {
	r := &Report{
		Session: res.SessionID,
		Mode:    string(mode),
		DryRun:  dryRun,
		Stats:   res.Stats,
		Groups:  make([]GroupReport, 0, len(res.Decisions)),
	}
	for _, d := range res.Decisions {
		r.Groups = append(r.Groups, GroupReport{
			Hash:    d.Hash,
			Kept:    d.Kept,
			Removed: d.Removed,
			Failed:  d.Failed,
		})
	}
	return r
}

// Write 根据扩展名输出 YAML（.yaml/.yml）或 JSON（.json）
func Write(path string, r *Report) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(r)
	case ".json":
		data, err = json.MarshalIndent(r, "", "  ")
	default:
		return fmt.Errorf("不支持的报告格式: %s", path)
	}
	if err != nil {
		return fmt.Errorf("序列化报告失败: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("创建报告目录失败: %w", err)
		}
	}
	return os.WriteFile(path, data, 0644)
}
