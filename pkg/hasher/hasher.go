package hasher

import (
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"
	"github.com/spf13/afero"

	"github.com/moyu-x/fotix/pkg/logger"
)

// CalculateHash 计算整个文件的 xxHash64
func CalculateHash(fs afero.Fs, filePath string) (uint64, error) {
	logger.Get().Trace().Msgf("计算文件哈希: %s", filePath)

	file, err := fs.Open(filePath)
	if err != nil {
		return 0, fmt.Errorf("打开文件失败: %w", err)
	}
	defer file.Close()

	hash := xxhash.New()
	if _, err := io.Copy(hash, file); err != nil {
		return 0, fmt.Errorf("计算哈希失败: %w", err)
	}

	return hash.Sum64(), nil
}

// PartialHash 只计算文件前 n 字节的哈希，用于快速排除同大小的不同文件
func PartialHash(fs afero.Fs, filePath string, n int64) (uint64, error) {
	file, err := fs.Open(filePath)
	if err != nil {
		return 0, fmt.Errorf("打开文件失败: %w", err)
	}
	defer file.Close()

	hash := xxhash.New()
	if _, err := io.CopyN(hash, file, n); err != nil && err != io.EOF {
		return 0, fmt.Errorf("计算部分哈希失败: %w", err)
	}

	return hash.Sum64(), nil
}

// Format 将哈希格式化为 16 位十六进制字符串
func Format(sum uint64) string {
	return fmt.Sprintf("%016x", sum)
}
