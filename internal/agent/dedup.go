package agent

import "strings"

// streamDeduper 把模型送來的「累積內容快照」轉成前端可直接列印的增量。
// 快照序列 ["a","ab","ab","abc"] 會產生增量 ["a","b","","c"]：重複快照
// 產生空增量，仍會轉發，讓呼叫端掌握心跳。
type streamDeduper struct {
	seen string
}

// delta 回傳 cumulative 中尚未轉發的後綴。快照若與已見內容不相容
// （模型重新開始輸出），整段視為新內容。
func (d *streamDeduper) delta(cumulative string) string {
	if strings.HasPrefix(cumulative, d.seen) {
		out := cumulative[len(d.seen):]
		d.seen = cumulative
		return out
	}
	d.seen = cumulative
	return cumulative
}
