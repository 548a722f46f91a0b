// Package stream 实现行分帧字节流到离散协议事件的解析
// 生成端以任意块边界推送字节，本包保证事件按帧序完整送达
package stream

// Callbacks 流事件回调集合
// 未设置的回调按空操作处理，调用方只需关心自己感兴趣的事件
type Callbacks struct {
	// OnToken 收到一个内容片段（包括以可见文本形式呈现的载荷内错误）
	OnToken func(text string)
	// OnStatus 收到阶段状态更新
	OnStatus func(stage, label, detail string)
	// OnMetadata 收到键值元数据
	OnMetadata func(meta map[string]string)
	// OnDone 流正常结束，每条流至多触发一次
	OnDone func()
	// OnError 传输层失败，与 OnDone 互斥，每条流至多触发一次
	OnError func(message string)
}

func (c Callbacks) token(text string) {
	if c.OnToken != nil {
		c.OnToken(text)
	}
}

func (c Callbacks) status(stage, label, detail string) {
	if c.OnStatus != nil {
		c.OnStatus(stage, label, detail)
	}
}

func (c Callbacks) metadata(meta map[string]string) {
	if c.OnMetadata != nil {
		c.OnMetadata(meta)
	}
}

func (c Callbacks) done() {
	if c.OnDone != nil {
		c.OnDone()
	}
}

func (c Callbacks) fail(message string) {
	if c.OnError != nil {
		c.OnError(message)
	}
}

// statusPayload 载荷中的状态对象
type statusPayload struct {
	Stage  string `json:"stage"`
	Label  string `json:"label"`
	Detail string `json:"detail"`
}

// payload 单行帧解码后的载荷
// 三个字段相互独立且均可缺失，未知字段忽略
type payload struct {
	Metadata map[string]string `json:"metadata,omitempty"`
	Status   *statusPayload    `json:"status,omitempty"`
	Content  string            `json:"content,omitempty"`
	Error    string            `json:"error,omitempty"`
}
