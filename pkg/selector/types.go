package selector

import "time"

// FileRecord 重复组中的单个文件，按值传递，不可变
type FileRecord struct {
	Path         string    `json:"path" yaml:"path"`
	Size         int64     `json:"size" yaml:"size"`
	CreationTime time.Time `json:"creation_time" yaml:"creation_time"`
	Kind         string    `json:"kind,omitempty" yaml:"kind,omitempty"`
	// ModTime 最后修改时间，仅用于哈希缓存失效判断，不参与选择
	ModTime time.Time `json:"mod_time" yaml:"mod_time"`
}

// DuplicateGroup 内容完全一致的一组文件
type DuplicateGroup struct {
	Files      []FileRecord
	HashValue  string
	FileToKeep *FileRecord
}

// Keep 将选择结果写回分组，由调用方决定是否调用
func (g *DuplicateGroup) Keep(rec FileRecord) {
	g.FileToKeep = &rec
}

// Removable 返回除保留文件外的所有文件
// 未设置 FileToKeep 时返回 nil
func (g *DuplicateGroup) Removable() []FileRecord {
	if g.FileToKeep == nil {
		return nil
	}
	out := make([]FileRecord, 0, len(g.Files)-1)
	for _, f := range g.Files {
		if f.Path == g.FileToKeep.Path {
			continue
		}
		out = append(out, f)
	}
	return out
}
