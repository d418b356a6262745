package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/moyu-x/fotix/pkg/logger"
)

// HashRecord 完整哈希缓存
type HashRecord struct {
	Path      string    `gorm:"primaryKey"`
	Size      int64     `gorm:"not null"`
	Stamp     time.Time `gorm:"not null"`
	Hash      string    `gorm:"index;not null"`
	UpdatedAt time.Time
}

func (HashRecord) TableName() string {
	return "file_hashes"
}

// Session 一次去重运行
type Session struct {
	ID         string `gorm:"primaryKey"`
	Mode       string `gorm:"not null"`
	DryRun     bool
	StartedAt  time.Time `gorm:"not null"`
	FinishedAt *time.Time
	Removed    int
	FreedSpace int64
}

func (Session) TableName() string {
	return "sessions"
}

// Removal 被移除文件的日志，trash 模式下用于恢复
type Removal struct {
	ID           int64  `gorm:"primaryKey"`
	SessionID    string `gorm:"index;not null"`
	Hash         string `gorm:"not null"`
	OriginalPath string `gorm:"not null"`
	StoredPath   string
	KeptPath     string `gorm:"not null"`
	Size         int64  `gorm:"not null"`
	RemovedAt    time.Time `gorm:"not null"`
	RestoredAt   *time.Time
}

func (Removal) TableName() string {
	return "removals"
}

type cacheEntry struct {
	size  int64
	stamp time.Time
	hash  string
}

type Database struct {
	db    *gorm.DB
	cache map[string]cacheEntry
	mu    sync.RWMutex
}

func NewDatabase(dbPath string) (*Database, error) {
	expandedPath, err := ExpandPath(dbPath)
	if err != nil {
		logger.Get().Error().Err(err).Msg("扩展数据库路径失败")
		return nil, err
	}

	logger.Get().Info().Msgf("初始化数据库，路径: %s", expandedPath)

	if err := os.MkdirAll(filepath.Dir(expandedPath), 0755); err != nil {
		logger.Get().Error().Err(err).Msgf("创建数据库目录失败: %s", filepath.Dir(expandedPath))
		return nil, err
	}

	dsn := expandedPath + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		logger.Get().Error().Err(err).Msg("打开数据库连接失败")
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Get().Error().Err(err).Msg("获取数据库连接失败")
		return nil, err
	}

	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		logger.Get().Error().Err(err).Msg("创建数据库表失败")
		return nil, err
	}

	logger.Get().Debug().Msg("数据库初始化完成")
	return &Database{
		db:    db,
		cache: make(map[string]cacheEntry),
	}, nil
}

// ExpandPath 展开开头的 ~/
func ExpandPath(path string) (string, error) {
	if len(path) >= 2 && path[0] == '~' && (path[1] == '/' || path[1] == '\\') {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[2:]), nil
	}
	return path, nil
}

func createSchema(db *gorm.DB) error {
	return db.AutoMigrate(&HashRecord{}, &Session{}, &Removal{})
}

// LookupHash 返回缓存的完整哈希，大小或时间戳变化时视为未命中
func (d *Database) LookupHash(path string, size int64, stamp time.Time) (string, bool) {
	d.mu.RLock()
	entry, ok := d.cache[path]
	d.mu.RUnlock()

	if !ok {
		var rec HashRecord
		err := d.db.Where("path = ?", path).Take(&rec).Error
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				logger.Get().Error().Err(err).Msgf("查询哈希失败: %s", path)
			}
			return "", false
		}
		entry = cacheEntry{size: rec.Size, stamp: rec.Stamp, hash: rec.Hash}

		d.mu.Lock()
		d.cache[path] = entry
		d.mu.Unlock()
	}

	if entry.size != size || !entry.stamp.Equal(stamp) {
		logger.Get().Trace().Msgf("哈希缓存已过期: %s", path)
		return "", false
	}
	return entry.hash, true
}

// StoreHash 写入或更新哈希缓存
func (d *Database) StoreHash(path string, size int64, stamp time.Time, hash string) error {
	rec := &HashRecord{Path: path, Size: size, Stamp: stamp.UTC(), Hash: hash}
	if err := d.db.Save(rec).Error; err != nil {
		return fmt.Errorf("保存哈希失败: %w", err)
	}

	d.mu.Lock()
	d.cache[path] = cacheEntry{size: size, stamp: stamp, hash: hash}
	d.mu.Unlock()
	return nil
}

// CreateSession 记录一次新的运行
func (d *Database) CreateSession(id, mode string, dryRun bool) (*Session, error) {
	s := &Session{
		ID:        id,
		Mode:      mode,
		DryRun:    dryRun,
		StartedAt: time.Now().UTC(),
	}
	if err := d.db.Create(s).Error; err != nil {
		return nil, fmt.Errorf("创建会话失败: %w", err)
	}
	return s, nil
}

// FinishSession 写入结束时间和统计
func (d *Database) FinishSession(id string, removed int, freed int64) error {
	now := time.Now().UTC()
	err := d.db.Model(&Session{}).Where("id = ?", id).Updates(map[string]interface{}{
		"finished_at": now,
		"removed":     removed,
		"freed_space": freed,
	}).Error
	if err != nil {
		return fmt.Errorf("更新会话失败: %w", err)
	}
	return nil
}

// GetSession 按 ID 查询会话
func (d *Database) GetSession(id string) (*Session, error) {
	var s Session
	if err := d.db.Where("id = ?", id).Take(&s).Error; err != nil {
		return nil, fmt.Errorf("查询会话 %s 失败: %w", id, err)
	}
	return &s, nil
}

// Sessions 按开始时间倒序列出所有会话
func (d *Database) Sessions() ([]Session, error) {
	var sessions []Session
	if err := d.db.Order("started_at desc").Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("查询会话失败: %w", err)
	}
	return sessions, nil
}

func (d *Database) RecordRemoval(r *Removal) error {
	if r.RemovedAt.IsZero() {
		r.RemovedAt = time.Now().UTC()
	}
	if err := d.db.Create(r).Error; err != nil {
		logger.Get().Error().Err(err).Msgf("记录移除失败: %s", r.OriginalPath)
		return err
	}
	return nil
}

// Removals 返回会话中尚未恢复的移除记录
func (d *Database) Removals(sessionID string) ([]Removal, error) {
	var out []Removal
	err := d.db.Where("session_id = ? AND restored_at IS NULL", sessionID).
		Order("id").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("查询移除记录失败: %w", err)
	}
	return out, nil
}

func (d *Database) MarkRestored(id int64) error {
	now := time.Now().UTC()
	if err := d.db.Model(&Removal{}).Where("id = ?", id).Update("restored_at", now).Error; err != nil {
		return fmt.Errorf("更新恢复状态失败: %w", err)
	}
	return nil
}

func (d *Database) Close() error {
	logger.Get().Debug().Msg("关闭数据库连接")
	sqlDB, err := d.db.DB()
	if err != nil {
		logger.Get().Error().Err(err).Msg("获取数据库连接失败")
		return err
	}
	return sqlDB.Close()
}
