// Package selector 决定一组完全相同的文件中保留哪一个。
//
// 选择规则按优先级逐级过滤:
//
//  1. 创建时间最早
//  2. 文件名不带副本标记
//  3. 完整路径字典序最小
//
// 本包不做任何文件系统访问，只处理已经收集好的元数据。
package selector

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Selector 持有一组只读的副本模式，可并发使用
type Selector struct {
	patterns []Pattern
}

var defaultSelector = New()

// New 创建选择器，patterns 为空时使用 DefaultPatterns
func New(patterns ...Pattern) *Selector {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	p := make([]Pattern, len(patterns))
	copy(p, patterns)
	return &Selector{patterns: p}
}

// WithExtra 返回在默认模式基础上追加 extra 的选择器
func WithExtra(extra ...Pattern) *Selector {
	all := make([]Pattern, 0, len(DefaultPatterns)+len(extra))
	all = append(all, DefaultPatterns...)
	all = append(all, extra...)
	return New(all...)
}

// Patterns 返回当前模式的副本
func (s *Selector) Patterns() []Pattern {
	p := make([]Pattern, len(s.patterns))
	copy(p, s.patterns)
	return p
}

// SelectFileToKeep 使用默认模式选择保留文件
func SelectFileToKeep(group *DuplicateGroup) (FileRecord, error) {
	return defaultSelector.SelectFileToKeep(group)
}

// SelectFileToKeep 返回应保留的文件，不修改 group
func (s *Selector) SelectFileToKeep(group *DuplicateGroup) (FileRecord, error) {
	if group == nil {
		return FileRecord{}, &InvalidGroupError{Reason: "group is nil"}
	}
	if group.Files == nil {
		return FileRecord{}, &InvalidGroupError{Reason: "group has no file list"}
	}
	if len(group.Files) < 2 {
		return FileRecord{}, &InvalidGroupError{Reason: fmt.Sprintf("group needs at least 2 files, got %d", len(group.Files))}
	}

	candidates := oldest(group.Files)
	if len(candidates) == 1 {
		return candidates[0], nil
	}

	clean := s.cleanNamed(candidates)
	switch len(clean) {
	case 1:
		return clean[0], nil
	case 0:
		// 全部像副本时不丢弃任何候选
	default:
		candidates = clean
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Path < candidates[j].Path
	})
	return candidates[0], nil
}

// IsCopyName 判断文件名主干是否带有副本标记
func (s *Selector) IsCopyName(path string) bool {
	stem := Stem(path)
	for _, p := range s.patterns {
		if p.Expr.MatchString(stem) {
			return true
		}
	}
	return false
}

func (s *Selector) cleanNamed(files []FileRecord) []FileRecord {
	var clean []FileRecord
	for _, f := range files {
		if !s.IsCopyName(f.Path) {
			clean = append(clean, f)
		}
	}
	return clean
}

// oldest 返回创建时间等于最小值的所有记录（新切片）
func oldest(files []FileRecord) []FileRecord {
	min := files[0].CreationTime
	for _, f := range files[1:] {
		if f.CreationTime.Before(min) {
			min = f.CreationTime
		}
	}
	var out []FileRecord
	for _, f := range files {
		if f.CreationTime.Equal(min) {
			out = append(out, f)
		}
	}
	return out
}

// Stem 返回不含扩展名的文件名
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
