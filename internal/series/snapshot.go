package series

import "finch/internal/indicator"

// Snapshot 是历史表尾部与未收盘 K 线合并后的只读视图。
// 行数据是值拷贝，修改它不会影响存储。
type Snapshot struct {
	Rows []indicator.Row
}

// Len 返回视图行数。
func (s Snapshot) Len() int { return len(s.Rows) }

// Empty 报告视图是否为空。
func (s Snapshot) Empty() bool { return len(s.Rows) == 0 }

// Last 返回最后一行；视图为空时 ok=false。
func (s Snapshot) Last() (indicator.Row, bool) {
	if len(s.Rows) == 0 {
		return indicator.Row{}, false
	}
	return s.Rows[len(s.Rows)-1], true
}

// Prev 返回倒数第二行；行数不足时 ok=false。
func (s Snapshot) Prev() (indicator.Row, bool) {
	if len(s.Rows) < 2 {
		return indicator.Row{}, false
	}
	return s.Rows[len(s.Rows)-2], true
}
