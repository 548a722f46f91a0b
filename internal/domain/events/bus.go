// Package events 定义领域事件类型和接口
// 知识库摄取链路通过它解耦文件监听和索引
package events

import "time"

// EventType 事件类型标识
type EventType string

// 知识文档文件事件
const (
	// DocumentFileCreated 知识文档创建
	DocumentFileCreated EventType = "document.file.created"
	// DocumentFileModified 知识文档修改
	DocumentFileModified EventType = "document.file.modified"
	// DocumentFileDeleted 知识文档删除
	DocumentFileDeleted EventType = "document.file.deleted"
)

// 索引事件
const (
	// NoteIndexed 笔记完成向量索引
	NoteIndexed EventType = "note.indexed"
)

// Event 领域事件接口
type Event interface {
	// Type 返回事件类型
	Type() EventType
	// Timestamp 返回事件发生时间
	Timestamp() time.Time
}

// Handler 事件处理器接口
type Handler interface {
	// HandleEvent 处理事件
	// 返回 error 仅用于日志记录，不会重试
	HandleEvent(event Event) error
}

// HandlerFunc 函数类型的处理器适配器
type HandlerFunc func(event Event) error

// HandleEvent 实现 Handler 接口
func (f HandlerFunc) HandleEvent(event Event) error {
	return f(event)
}

// EventBus 事件总线接口
type EventBus interface {
	// Subscribe 订阅特定类型的事件，返回取消订阅函数
	Subscribe(eventType EventType, handler Handler) (unsubscribe func())

	// Publish 异步发布事件到所有匹配的订阅者
	Publish(event Event)

	// Close 停止接收新事件，等待已发布事件处理完成
	Close()
}
