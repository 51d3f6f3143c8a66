package sse

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
)

// Hub 管理基于 topic 的 SSE 订阅者，topic 为融合请求的 session
//
// 所有对 topics 的修改都在 Run 所在的 goroutine 中串行执行。
// 订阅者 channel 由 handler 创建和关闭，Hub 只负责发送，读得慢的客户端会被丢消息。
type Hub struct {
	topics map[string]map[chan []byte]struct{}

	subscribe   chan subscription
	unsubscribe chan subscription
	publish     chan topicMessage
	done        chan struct{}
}

type subscription struct {
	ch    chan []byte
	topic string
}

type topicMessage struct {
	topic string
	msg   []byte
}

// NewHub publish 通道缓冲 100，吸收短时突发
func NewHub() *Hub {
	return &Hub{
		topics:      make(map[string]map[chan []byte]struct{}),
		subscribe:   make(chan subscription),
		unsubscribe: make(chan subscription),
		publish:     make(chan topicMessage, 100),
		done:        make(chan struct{}),
	}
}

// Run 事件循环，ctx 结束后返回
//
//	hub := sse.NewHub()
//	go hub.Run(ctx)
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			return
		case s := <-h.subscribe:
			subs, ok := h.topics[s.topic]
			if !ok {
				subs = make(map[chan []byte]struct{})
				h.topics[s.topic] = subs
			}
			subs[s.ch] = struct{}{}
		case s := <-h.unsubscribe:
			if subs, ok := h.topics[s.topic]; ok {
				delete(subs, s.ch)
				if len(subs) == 0 {
					delete(h.topics, s.topic)
				}
			}
		case tm := <-h.publish:
			for ch := range h.topics[tm.topic] {
				select {
				case ch <- tm.msg:
				default:
				}
			}
		}
	}
}

// Publish 发布到 topic；缓冲已满或 Hub 已停止时直接丢弃，不阻塞调用方
func (h *Hub) Publish(topic string, msg []byte) {
	select {
	case h.publish <- topicMessage{topic: topic, msg: msg}:
	case <-h.done:
	default:
		zap.L().Debug("sse publish dropped", zap.String("topic", topic))
	}
}

// PublishJSON 序列化后发布
func (h *Hub) PublishJSON(topic string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		zap.L().Warn("sse marshal failed", zap.String("topic", topic), zap.Error(err))
		return
	}
	h.Publish(topic, b)
}

// Subscribe 调用方传入带缓冲的 channel，并负责 Unsubscribe 与关闭
func (h *Hub) Subscribe(ch chan []byte, topic string) bool {
	select {
	case h.subscribe <- subscription{ch: ch, topic: topic}:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unsubscribe(ch chan []byte, topic string) {
	select {
	case h.unsubscribe <- subscription{ch: ch, topic: topic}:
	case <-h.done:
	}
}
