package deduplicator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/moyu-x/fotix/internal"
	"github.com/moyu-x/fotix/pkg/database"
	"github.com/moyu-x/fotix/pkg/grouper"
	"github.com/moyu-x/fotix/pkg/logger"
	"github.com/moyu-x/fotix/pkg/scanner"
	"github.com/moyu-x/fotix/pkg/selector"
)

// Journal 记录会话与被移除的文件，同时提供哈希缓存
type Journal interface {
	grouper.Cache
	CreateSession(id, mode string, dryRun bool) (*database.Session, error)
	FinishSession(id string, removed int, freed int64) error
	RecordRemoval(r *database.Removal) error
	Removals(sessionID string) ([]database.Removal, error)
	MarkRestored(id int64) error
}

type Options struct {
	Fs       afero.Fs
	Journal  Journal
	Selector *selector.Selector

	Mode      internal.OperationMode
	TargetDir string
	BackupDir string
	DryRun    bool
	Workers   int

	Scanner scanner.Options
}

// Decision 一个重复组的处理结果
type Decision struct {
	Hash    string
	Kept    selector.FileRecord
	Removed []selector.FileRecord
	// Failed 处理失败的文件路径及原因
	Failed map[string]string
}

type Result struct {
	SessionID string
	Stats     internal.ProcessStats
	Decisions []Decision
}

type Deduplicator struct {
	opts         Options
	fs           afero.Fs
	selector     *selector.Selector
	progressChan chan internal.ProgressUpdate
}

func NewDeduplicator(opts Options) (*Deduplicator, error) {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Selector == nil {
		opts.Selector = selector.New()
	}
	if opts.Mode == "" {
		opts.Mode = internal.ModeTrash
	}

	switch opts.Mode {
	case internal.ModeMove:
		if opts.TargetDir == "" {
			return nil, fmt.Errorf("使用 move 模式时必须指定目标目录")
		}
	case internal.ModeTrash:
		if opts.BackupDir == "" {
			return nil, fmt.Errorf("使用 trash 模式时必须指定回收目录")
		}
		if opts.Journal == nil {
			return nil, fmt.Errorf("trash 模式需要数据库记录以便恢复")
		}
	case internal.ModeDelete:
	default:
		return nil, fmt.Errorf("未知的操作模式: %s", opts.Mode)
	}

	logger.Get().Info().Msgf("创建去重处理器，模式: %s", opts.Mode)
	return &Deduplicator{
		opts:         opts,
		fs:           opts.Fs,
		selector:     opts.Selector,
		progressChan: make(chan internal.ProgressUpdate, 100),
	}, nil
}

// Progress 返回进度通道，Process 结束时关闭
func (d *Deduplicator) Progress() <-chan internal.ProgressUpdate {
	return d.progressChan
}

func (d *Deduplicator) send(u internal.ProgressUpdate) {
	select {
	case d.progressChan <- u:
	default:
	}
}

// Process 扫描、分组并处理 dirs 中的重复文件
func (d *Deduplicator) Process(ctx context.Context, dirs []string) (*Result, error) {
	defer close(d.progressChan)

	res := &Result{
		SessionID: uuid.New().String(),
	}
	res.Stats.StartTime = time.Now()

	logger.Get().Info().Msgf("开始处理，会话: %s，目录数: %d", res.SessionID, len(dirs))
	if d.opts.DryRun {
		logger.Get().Info().Msg("=== 预览模式，不会实际修改文件 ===")
	}

	if d.opts.Journal != nil {
		if _, err := d.opts.Journal.CreateSession(res.SessionID, string(d.opts.Mode), d.opts.DryRun); err != nil {
			return nil, err
		}
	}

	walker := scanner.NewFileWalker(d.fs, d.opts.Scanner)
	walker.OnFile = func(count int, path string) {
		if count%100 == 0 {
			d.send(internal.ProgressUpdate{Phase: internal.PhaseScanning, Scanned: count, CurrentFile: path})
		}
	}
	records, err := walker.Scan(ctx, dirs)
	if err != nil {
		d.finish(res)
		return nil, fmt.Errorf("扫描目录失败: %w", err)
	}
	res.Stats.TotalScanned = len(records)
	d.send(internal.ProgressUpdate{Phase: internal.PhaseHashing, Scanned: len(records)})

	var cache grouper.Cache
	if d.opts.Journal != nil {
		cache = d.opts.Journal
	}
	g := grouper.New(d.fs, d.opts.Workers, cache)
	g.IncludeEmpty = d.opts.Scanner.IncludeEmpty
	groups, failed, err := g.Group(ctx, records)
	if err != nil {
		d.finish(res)
		return nil, fmt.Errorf("分组失败: %w", err)
	}
	res.Stats.Errors += failed
	res.Stats.Groups = len(groups)

	for i := range groups {
		if err := ctx.Err(); err != nil {
			d.finish(res)
			return res, err
		}

		dec, err := d.processGroup(res.SessionID, &groups[i], &res.Stats)
		if err != nil {
			res.Stats.Errors++
			logger.Get().Error().Err(err).Msgf("处理重复组失败: %s", groups[i].HashValue)
			continue
		}
		res.Decisions = append(res.Decisions, dec)

		d.send(internal.ProgressUpdate{
			Phase:       internal.PhaseActing,
			Scanned:     res.Stats.TotalScanned,
			GroupsDone:  i + 1,
			GroupsTotal: len(groups),
			Removed:     res.Stats.Deleted + res.Stats.Moved + res.Stats.Trashed,
			FreedSpace:  res.Stats.FreedSpace,
			CurrentFile: dec.Kept.Path,
		})
	}

	d.finish(res)
	return res, nil
}

func (d *Deduplicator) finish(res *Result) {
	res.Stats.EndTime = time.Now()
	removed := res.Stats.Deleted + res.Stats.Moved + res.Stats.Trashed
	if d.opts.Journal != nil {
		if err := d.opts.Journal.FinishSession(res.SessionID, removed, res.Stats.FreedSpace); err != nil {
			logger.Get().Error().Err(err).Msg("更新会话失败")
		}
	}
	d.send(internal.ProgressUpdate{Phase: internal.PhaseDone, Removed: removed, FreedSpace: res.Stats.FreedSpace})

	logger.Get().Info().Msgf("处理完成，总耗时: %v", res.Stats.EndTime.Sub(res.Stats.StartTime))
}

// processGroup 选出保留文件并处理其余文件
func (d *Deduplicator) processGroup(sessionID string, group *selector.DuplicateGroup, stats *internal.ProcessStats) (Decision, error) {
	keep, err := d.selector.SelectFileToKeep(group)
	if err != nil {
		return Decision{}, err
	}
	group.Keep(keep)

	dec := Decision{Hash: group.HashValue, Kept: keep}
	logger.Get().Debug().
		Str("hash", group.HashValue).
		Int("files", len(group.Files)).
		Str("keep", keep.Path).
		Msg("选定保留文件")

	// 保留文件必须仍然存在，否则不动组内任何文件
	keepInfo, err := d.fs.Stat(keep.Path)
	if err != nil {
		return Decision{}, fmt.Errorf("保留文件不可用 %s: %w", keep.Path, err)
	}

	for _, f := range group.Removable() {
		// 指向保留文件的链接与保留文件是同一份数据
		if info, err := d.fs.Stat(f.Path); err == nil && os.SameFile(keepInfo, info) {
			logger.Get().Warn().Msgf("%s 与保留文件 %s 是同一个文件，跳过", f.Path, keep.Path)
			continue
		}

		stats.Duplicates++

		if d.opts.DryRun {
			dec.Removed = append(dec.Removed, f)
			stats.FreedSpace += f.Size
			logger.Get().Info().Msgf("[预览] 将%s: %s (保留 %s)", modeVerb(d.opts.Mode), f.Path, keep.Path)
			continue
		}

		stored, err := d.act(sessionID, group.HashValue, f)
		if err != nil {
			stats.Errors++
			if dec.Failed == nil {
				dec.Failed = make(map[string]string)
			}
			dec.Failed[f.Path] = err.Error()
			logger.Get().Error().Err(err).Msgf("%s文件失败: %s", modeVerb(d.opts.Mode), f.Path)
			continue
		}

		dec.Removed = append(dec.Removed, f)
		stats.FreedSpace += f.Size
		switch d.opts.Mode {
		case internal.ModeDelete:
			stats.Deleted++
		case internal.ModeMove:
			stats.Moved++
		case internal.ModeTrash:
			stats.Trashed++
		}
		logger.Get().Info().Msgf("已%s重复文件: %s (%s)", modeVerb(d.opts.Mode), f.Path, internal.FormatBytes(f.Size))

		if d.opts.Journal != nil {
			if err := d.opts.Journal.RecordRemoval(&database.Removal{
				SessionID:    sessionID,
				Hash:         group.HashValue,
				OriginalPath: f.Path,
				StoredPath:   stored,
				KeptPath:     keep.Path,
				Size:         f.Size,
			}); err != nil {
				logger.Get().Error().Err(err).Msgf("记录操作失败: %s", f.Path)
			}
		}
	}

	return dec, nil
}

// act 按模式处理单个文件，返回文件的新位置（删除模式为空）
func (d *Deduplicator) act(sessionID, hash string, f selector.FileRecord) (string, error) {
	switch d.opts.Mode {
	case internal.ModeDelete:
		return "", d.fs.Remove(f.Path)
	case internal.ModeMove:
		dst, err := d.uniquePath(filepath.Join(d.opts.TargetDir, targetName(hash, f.Path)))
		if err != nil {
			return "", err
		}
		return dst, d.moveFile(f.Path, dst)
	case internal.ModeTrash:
		dir := filepath.Join(d.opts.BackupDir, sessionID, hash)
		dst, err := d.uniquePath(filepath.Join(dir, filepath.Base(f.Path)))
		if err != nil {
			return "", err
		}
		return dst, d.moveFile(f.Path, dst)
	}
	return "", fmt.Errorf("未知的操作模式: %s", d.opts.Mode)
}

func targetName(hash, srcPath string) string {
	ext := filepath.Ext(srcPath)
	if len(hash) <= 8 {
		return hash + ext
	}
	return hash[:8] + "_" + hash[8:] + ext
}

func modeVerb(mode internal.OperationMode) string {
	switch mode {
	case internal.ModeDelete:
		return "删除"
	case internal.ModeMove:
		return "移动"
	default:
		return "回收"
	}
}
