package events

import "time"

// DocumentFileEvent 知识文档文件变更事件
// 知识目录下的 Markdown 文件发生变更时触发
type DocumentFileEvent struct {
	// EventType 事件类型（created/modified/deleted）
	EventType EventType
	// FilePath 文件完整路径
	FilePath string
	// OrgID 文档归属的组织
	OrgID string
	// ModTime 文件最后修改时间
	ModTime time.Time
	// EventTime 事件发生时间
	EventTime time.Time
}

// Type 实现 Event 接口
func (e *DocumentFileEvent) Type() EventType {
	return e.EventType
}

// Timestamp 实现 Event 接口
func (e *DocumentFileEvent) Timestamp() time.Time {
	return e.EventTime
}

// NoteIndexedEvent 笔记完成向量索引事件
type NoteIndexedEvent struct {
	// NoteID 笔记 ID
	NoteID string
	// OrgID 笔记归属的组织
	OrgID string
	// Title 笔记标题
	Title string
	// EventTime 事件发生时间
	EventTime time.Time
}

// Type 实现 Event 接口
func (e *NoteIndexedEvent) Type() EventType {
	return NoteIndexed
}

// Timestamp 实现 Event 接口
func (e *NoteIndexedEvent) Timestamp() time.Time {
	return e.EventTime
}
