package hasher

import (
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/spf13/afero"

	"github.com/moyu-x/fotix/internal"
	"github.com/moyu-x/fotix/pkg/logger"
)

// HashFunc 计算单个文件的哈希
type HashFunc func(fs afero.Fs, path string) (uint64, error)

type HashTask struct {
	Path string
	Size int64
}

type HashResult struct {
	Path  string
	Hash  uint64
	Size  int64
	Error error
}

type HashPool struct {
	fs        afero.Fs
	fn        HashFunc
	workers   int
	tasks     chan HashTask
	results   chan HashResult
	wg        sync.WaitGroup
	pool      *ants.Pool
	closeOnce sync.Once

	// submit 默认为 pool.Submit
	submit func(task func()) error
}

// NewHashPool 创建计算池，fn 为空时使用 CalculateHash
func NewHashPool(fs afero.Fs, workers int, fn HashFunc) *HashPool {
	if workers <= 0 {
		workers = 1
	}
	if fn == nil {
		fn = CalculateHash
	}
	logger.Get().Debug().Msgf("创建哈希计算池，工作线程数: %d", workers)
	return &HashPool{
		fs:      fs,
		fn:      fn,
		workers: workers,
		tasks:   make(chan HashTask, internal.DefaultBufferSize),
		results: make(chan HashResult, internal.DefaultBufferSize),
	}
}

// Start 启动工作线程，失败时已启动的线程会被回收，结果通道关闭
func (p *HashPool) Start() error {
	var err error
	p.pool, err = ants.NewPool(p.workers)
	if err != nil {
		logger.Get().Error().Err(err).Msg("创建 goroutine 池失败")
		return err
	}
	if p.submit == nil {
		p.submit = p.pool.Submit
	}

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		if err := p.submit(p.worker); err != nil {
			p.wg.Done()
			logger.Get().Error().Err(err).Msg("提交工作线程失败")
			p.Close()
			return err
		}
	}
	return nil
}

func (p *HashPool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		hash, err := p.fn(p.fs, task.Path)
		p.results <- HashResult{
			Path:  task.Path,
			Hash:  hash,
			Size:  task.Size,
			Error: err,
		}
	}
}

func (p *HashPool) AddTask(task HashTask) {
	p.tasks <- task
}

func (p *HashPool) Results() <-chan HashResult {
	return p.results
}

// Close 停止接收任务，等待已提交的任务完成后关闭结果通道
// 调用方需要持续消费 Results，否则可能阻塞；重复调用无副作用
func (p *HashPool) Close() {
	p.closeOnce.Do(func() {
		close(p.tasks)
		p.wg.Wait()

		if p.pool != nil {
			p.pool.Release()
		}

		close(p.results)
	})
}

// HashAll 并发计算 paths 的哈希，返回 path -> 结果
func HashAll(fs afero.Fs, workers int, fn HashFunc, tasks []HashTask) (map[string]HashResult, error) {
	pool := NewHashPool(fs, workers, fn)
	if err := pool.Start(); err != nil {
		return nil, err
	}

	go func() {
		for _, t := range tasks {
			pool.AddTask(t)
		}
		pool.Close()
	}()

	out := make(map[string]HashResult, len(tasks))
	for r := range pool.Results() {
		out[r.Path] = r
	}
	return out, nil
}
