package scanner

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	"github.com/spf13/afero"

	"github.com/moyu-x/fotix/internal"
	"github.com/moyu-x/fotix/pkg/logger"
	"github.com/moyu-x/fotix/pkg/selector"
)

type Options struct {
	IncludeHidden  bool
	FollowSymlinks bool
	// 小于 MinSize 字节的文件不参与去重
	MinSize int64
	// IncludeEmpty 为 true 时空文件不受 MinSize 限制
	IncludeEmpty bool
	// MIME 大类过滤（image、video 等），为空表示不过滤
	Kinds []string
}

type FileWalker struct {
	fs   afero.Fs
	opts Options

	// OnFile 每收集到一个文件调用一次，用于进度显示
	OnFile func(count int, path string)
}

func NewFileWalker(fs afero.Fs, opts Options) *FileWalker {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &FileWalker{
		fs:   fs,
		opts: opts,
	}
}

// Walk 遍历 root 下的普通文件，单个条目出错时跳过
func (w *FileWalker) Walk(root string, callback func(path string, info os.FileInfo) error) error {
	return afero.Walk(w.fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			logger.Get().Debug().Err(err).Str("path", path).Msg("访问路径出错")
			return nil
		}

		if path != root && !w.opts.IncludeHidden && isHidden(info.Name()) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.IsDir() {
			return nil
		}

		if info.Mode()&os.ModeSymlink != 0 {
			if !w.opts.FollowSymlinks {
				return nil
			}
			target, err := w.fs.Stat(path)
			if err != nil {
				logger.Get().Debug().Err(err).Str("path", path).Msg("解析符号链接失败")
				return nil
			}
			if !target.Mode().IsRegular() {
				return nil
			}
			info = target
		} else if !info.Mode().IsRegular() {
			return nil
		}

		return callback(path, info)
	})
}

// Scan 收集 dirs 下所有候选文件的元数据
// 同一个真实文件只记录一次：重叠的目录、指向已扫描文件的符号链接都会被合并，
// 合并时优先保留真实路径而不是链接路径
func (w *FileWalker) Scan(ctx context.Context, dirs []string) ([]selector.FileRecord, error) {
	seen := make(map[string]seenEntry)
	var records []selector.FileRecord

	for _, dir := range dirs {
		root, err := filepath.Abs(dir)
		if err != nil {
			return nil, err
		}
		logger.Get().Info().Msgf("扫描目录: %s", root)

		err = w.Walk(root, func(path string, info os.FileInfo) error {
			if err := ctx.Err(); err != nil {
				return err
			}

			key := w.resolve(path)
			link := w.isSymlink(path)
			if prev, ok := seen[key]; ok {
				if prev.link && !link && prev.index >= 0 {
					logger.Get().Debug().Msgf("符号链接 %s 指向 %s，改为记录真实路径", records[prev.index].Path, path)
					records[prev.index].Path = path
					seen[key] = seenEntry{index: prev.index}
				}
				return nil
			}
			seen[key] = seenEntry{index: -1, link: link}

			if info.Size() < w.opts.MinSize && !(info.Size() == 0 && w.opts.IncludeEmpty) {
				return nil
			}

			kind := w.detectKind(path)
			if !w.kindAllowed(kind) {
				return nil
			}

			records = append(records, selector.FileRecord{
				Path:         path,
				Size:         info.Size(),
				CreationTime: creationTime(info).UTC(),
				Kind:         kind,
				ModTime:      info.ModTime().UTC(),
			})
			seen[key] = seenEntry{index: len(records) - 1, link: link}
			if w.OnFile != nil {
				w.OnFile(len(records), path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	logger.Get().Info().Msgf("扫描完成，共收集 %d 个文件", len(records))
	return records, nil
}

type seenEntry struct {
	// index 在结果中的位置，被过滤掉时为 -1
	index int
	link  bool
}

// resolve 解析符号链接后的真实路径，只对操作系统文件系统生效
// 解析失败时返回原路径
func (w *FileWalker) resolve(path string) string {
	if _, ok := w.fs.(*afero.OsFs); !ok {
		return path
	}
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return path
	}
	return resolved
}

func (w *FileWalker) isSymlink(path string) bool {
	lst, ok := w.fs.(afero.Lstater)
	if !ok {
		return false
	}
	info, _, err := lst.LstatIfPossible(path)
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeSymlink != 0
}

// detectKind 读取文件头部判断 MIME 大类
func (w *FileWalker) detectKind(path string) string {
	file, err := w.fs.Open(path)
	if err != nil {
		return internal.UnknownFileType
	}
	defer file.Close()

	head := make([]byte, internal.FileHeaderSize)
	n, err := file.Read(head)
	if err != nil && err != io.EOF {
		return internal.UnknownFileType
	}

	kind, err := filetype.Match(head[:n])
	if err != nil || kind == filetype.Unknown {
		return internal.UnknownFileType
	}
	return kind.MIME.Type
}

func (w *FileWalker) kindAllowed(kind string) bool {
	if len(w.opts.Kinds) == 0 {
		return true
	}
	for _, k := range w.opts.Kinds {
		if strings.EqualFold(k, kind) {
			return true
		}
	}
	return false
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}
