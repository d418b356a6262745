package internal

const (
	// 数据库默认路径
	DefaultDatabasePath = "~/.fotix/fotix.db"

	// 回收目录默认路径，trash 模式下被移除的文件存放于此
	DefaultBackupDir = "~/.fotix/backup"

	// 缓冲区大小
	DefaultBufferSize = 1000

	// 部分哈希读取的字节数
	PartialHashSize = 4096

	// 文件类型检测所需的文件头部大小
	FileHeaderSize = 261

	// 未知文件类型
	UnknownFileType = "unknown"
)
