// Package grouper 将扫描结果按内容分组，得到待选择的重复组。
package grouper

import (
	"context"
	"sort"
	"time"

	"github.com/spf13/afero"

	"github.com/moyu-x/fotix/internal"
	"github.com/moyu-x/fotix/pkg/hasher"
	"github.com/moyu-x/fotix/pkg/logger"
	"github.com/moyu-x/fotix/pkg/selector"
)

// Cache 完整哈希缓存，路径、大小、修改时间都未变化时可复用
type Cache interface {
	LookupHash(path string, size int64, stamp time.Time) (string, bool)
	StoreHash(path string, size int64, stamp time.Time, hash string) error
}

type Grouper struct {
	fs      afero.Fs
	workers int
	cache   Cache

	// IncludeEmpty 为 true 时空文件也参与分组
	IncludeEmpty bool
}

func New(fs afero.Fs, workers int, cache Cache) *Grouper {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Grouper{fs: fs, workers: workers, cache: cache}
}

// Group 依次按大小、部分哈希、完整哈希分桶，返回至少两个文件的组
// 结果按哈希排序，组内文件按路径排序；failed 为哈希失败而被跳过的文件数
func (g *Grouper) Group(ctx context.Context, records []selector.FileRecord) (groups []selector.DuplicateGroup, failed int, err error) {
	bySize := make(map[int64][]selector.FileRecord)
	for _, r := range records {
		if r.Size == 0 && !g.IncludeEmpty {
			continue
		}
		bySize[r.Size] = append(bySize[r.Size], r)
	}

	var candidates [][]selector.FileRecord
	for _, bucket := range bySize {
		if len(bucket) > 1 {
			candidates = append(candidates, bucket)
		}
	}
	logger.Get().Debug().Msgf("按大小筛选后剩余 %d 个候选桶", len(candidates))

	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	// 大文件先比较头部，避免完整读取明显不同的文件
	var large []selector.FileRecord
	var next [][]selector.FileRecord
	for _, bucket := range candidates {
		if bucket[0].Size > internal.PartialHashSize {
			large = append(large, bucket...)
		} else {
			next = append(next, bucket)
		}
	}
	if len(large) > 0 {
		partial := func(fs afero.Fs, path string) (uint64, error) {
			return hasher.PartialHash(fs, path, internal.PartialHashSize)
		}
		results, err := hasher.HashAll(g.fs, g.workers, partial, tasksFor(large))
		if err != nil {
			return nil, 0, err
		}
		buckets, bad := bucketBy(large, results)
		failed += bad
		next = append(next, buckets...)
	}

	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	full, bad, err := g.fullHashes(next)
	if err != nil {
		return nil, 0, err
	}
	failed += bad

	byHash := make(map[string][]selector.FileRecord)
	for _, bucket := range next {
		for _, r := range bucket {
			h, ok := full[r.Path]
			if !ok {
				continue
			}
			key := sizeKey(r.Size) + h
			byHash[key] = append(byHash[key], r)
		}
	}

	for _, files := range byHash {
		if len(files) < 2 {
			continue
		}
		sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
		groups = append(groups, selector.DuplicateGroup{
			Files:     files,
			HashValue: full[files[0].Path],
		})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].HashValue != groups[j].HashValue {
			return groups[i].HashValue < groups[j].HashValue
		}
		return groups[i].Files[0].Path < groups[j].Files[0].Path
	})

	logger.Get().Info().Msgf("分组完成，共 %d 个重复组", len(groups))
	return groups, failed, nil
}

// fullHashes 计算完整哈希，命中缓存的文件不再读取
func (g *Grouper) fullHashes(buckets [][]selector.FileRecord) (map[string]string, int, error) {
	out := make(map[string]string)
	var pending []selector.FileRecord
	for _, bucket := range buckets {
		for _, r := range bucket {
			if g.cache != nil {
				if h, ok := g.cache.LookupHash(r.Path, r.Size, r.ModTime); ok {
					out[r.Path] = h
					continue
				}
			}
			pending = append(pending, r)
		}
	}
	if len(pending) == 0 {
		return out, 0, nil
	}

	results, err := hasher.HashAll(g.fs, g.workers, hasher.CalculateHash, tasksFor(pending))
	if err != nil {
		return nil, 0, err
	}

	failed := 0
	for _, r := range pending {
		res := results[r.Path]
		if res.Error != nil {
			logger.Get().Error().Err(res.Error).Msgf("计算哈希失败: %s", r.Path)
			failed++
			continue
		}
		h := hasher.Format(res.Hash)
		out[r.Path] = h
		if g.cache != nil {
			if err := g.cache.StoreHash(r.Path, r.Size, r.ModTime, h); err != nil {
				logger.Get().Warn().Err(err).Msgf("写入哈希缓存失败: %s", r.Path)
			}
		}
	}
	return out, failed, nil
}

func bucketBy(records []selector.FileRecord, results map[string]hasher.HashResult) ([][]selector.FileRecord, int) {
	failed := 0
	keyed := make(map[string][]selector.FileRecord)
	for _, r := range records {
		res := results[r.Path]
		if res.Error != nil {
			logger.Get().Error().Err(res.Error).Msgf("计算部分哈希失败: %s", r.Path)
			failed++
			continue
		}
		key := sizeKey(r.Size) + hasher.Format(res.Hash)
		keyed[key] = append(keyed[key], r)
	}

	var out [][]selector.FileRecord
	for _, bucket := range keyed {
		if len(bucket) > 1 {
			out = append(out, bucket)
		}
	}
	return out, failed
}

func tasksFor(records []selector.FileRecord) []hasher.HashTask {
	tasks := make([]hasher.HashTask, len(records))
	for i, r := range records {
		tasks[i] = hasher.HashTask{Path: r.Path, Size: r.Size}
	}
	return tasks
}

func sizeKey(size int64) string {
	return hasher.Format(uint64(size)) + ":"
}
