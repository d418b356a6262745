package selector

import (
	"fmt"
	"regexp"
)

// Pattern 匹配文件名主干（不含扩展名）末尾的副本标记
type Pattern struct {
	Name string
	Expr *regexp.Regexp
}

// DefaultPatterns 默认的副本标记，区分大小写，均锚定在主干末尾
//
//	photo (1)          括号数字
//	vacation - Copy 2  本地化的 "- Copy"，可带编号
//	img_copy2          下划线 copy，可带编号
var DefaultPatterns = []Pattern{
	{Name: "numbered", Expr: regexp.MustCompile(`\s*\(\d+\)$`)},
	{Name: "localized-copy", Expr: regexp.MustCompile(`\s+-\s+(Copy|Cópia|Copia|Kopie|Copie|副本)(\s+\(?\d+\)?)?$`)},
	{Name: "underscore-copy", Expr: regexp.MustCompile(`_copy\d*$`)},
}

// CompilePatterns 编译配置文件中的额外模式
// 每个表达式整体锚定到末尾，分支写法 a|b 的每个分支都只匹配结尾
func CompilePatterns(exprs []string) ([]Pattern, error) {
	patterns := make([]Pattern, 0, len(exprs))
	for i, expr := range exprs {
		if expr == "" {
			continue
		}
		re, err := regexp.Compile("(?:" + expr + ")$")
		if err != nil {
			return nil, fmt.Errorf("编译副本模式 #%d 失败: %w", i, err)
		}
		patterns = append(patterns, Pattern{Name: fmt.Sprintf("custom-%d", i), Expr: re})
	}
	return patterns, nil
}
