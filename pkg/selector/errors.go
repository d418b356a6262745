package selector

import "errors"

// ErrInvalidGroup 用于 errors.Is 判断
var ErrInvalidGroup = errors.New("invalid duplicate group")

// InvalidGroupError 分组为空或文件数少于两个
type InvalidGroupError struct {
	Reason string
}

func (e *InvalidGroupError) Error() string {
	return "invalid duplicate group: " + e.Reason
}

func (e *InvalidGroupError) Is(target error) bool {
	return target == ErrInvalidGroup
}
