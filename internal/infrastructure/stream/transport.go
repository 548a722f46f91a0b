package stream

import (
	"bytes"
	"encoding/json"
	"strings"
)

const (
	// dataPrefix 行帧前缀，仅带该前缀的行携带载荷
	dataPrefix = "data: "
	// doneSentinel 终止哨兵，收到后不再投递任何事件
	doneSentinel = "[DONE]"
)

// Framer 将任意切分的字节块还原为完整行帧并派发事件
// 非并发安全，每条流独占一个实例
type Framer struct {
	cb      Callbacks
	pending []byte
	closed  bool
}

// NewFramer 创建分帧器
func NewFramer(cb Callbacks) *Framer {
	return &Framer{cb: cb}
}

// Terminated 判断流是否已终止（Done 或 Error 之一已投递）
func (f *Framer) Terminated() bool {
	return f.closed
}

// Feed 送入一个字节块
// 维护单一待处理缓冲：追加后按换行切分，处理所有完整行，
// 保留最后一个换行之后的尾部片段，因此载荷被切成多块也不会错帧
func (f *Framer) Feed(chunk []byte) {
	if f.closed {
		return
	}
	f.pending = append(f.pending, chunk...)

	for {
		idx := bytes.IndexByte(f.pending, '\n')
		if idx < 0 {
			return
		}
		line := string(f.pending[:idx])
		f.pending = f.pending[idx+1:]
		f.processLine(line)
		if f.closed {
			return
		}
	}
}

// Finish 通知数据源已正常读尽
// 未收到哨兵的干净结束同样视为 Done
func (f *Framer) Finish() {
	if f.closed {
		return
	}
	// 缓冲中残留的无换行尾帧按规则丢弃，但哨兵帧不得吞掉
	f.processLine(string(f.pending))
	if f.closed {
		return
	}
	f.closed = true
	f.cb.done()
}

// Fail 通知传输层失败，作为唯一一次 Error 事件上报
func (f *Framer) Fail(message string) {
	if f.closed {
		return
	}
	f.closed = true
	f.cb.fail(message)
}

// Cancel 调用方主动停止生成
// 立即合成 Done，已投递的事件不回滚
func (f *Framer) Cancel() {
	if f.closed {
		return
	}
	f.closed = true
	f.cb.done()
}

// processLine 处理单个完整行帧
// 非 JSON 载荷静默丢弃，载荷内字段按 metadata、status、content/error 次序派发
func (f *Framer) processLine(line string) {
	line = strings.TrimSuffix(strings.TrimSpace(line), "\r")
	if !strings.HasPrefix(line, dataPrefix) {
		return
	}
	raw := strings.TrimSpace(strings.TrimPrefix(line, dataPrefix))
	if raw == doneSentinel {
		f.closed = true
		f.cb.done()
		return
	}

	var p payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return
	}
	if len(p.Metadata) > 0 {
		f.cb.metadata(p.Metadata)
	}
	if p.Status != nil {
		f.cb.status(p.Status.Stage, p.Status.Label, p.Status.Detail)
	}
	if p.Content != "" {
		f.cb.token(p.Content)
	} else if p.Error != "" {
		// 载荷内错误作为可见文本呈现，不终止流
		f.cb.token(p.Error)
	}
}
