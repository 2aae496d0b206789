package weather

import (
	"sync"
	"sync/atomic"
)

// TopicAll получает показания всех датчиков.
const TopicAll = "all"

// Hub: внутрипроцессная раздача показаний подписчикам.
// Медленный подписчик теряет сообщения, публикующий не блокируется.
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[*Subscription]struct{}
	buffer int
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{topics: make(map[string]map[*Subscription]struct{}), buffer: buffer}
}

type Subscription struct {
	C       <-chan Response
	ch      chan Response
	topic   string
	hub     *Hub
	once    sync.Once
	dropped atomic.Int64
}

func (h *Hub) Subscribe(topic string) *Subscription {
	ch := make(chan Response, h.buffer)
	s := &Subscription{C: ch, ch: ch, topic: topic, hub: h}
	h.mu.Lock()
	set, ok := h.topics[topic]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.topics[topic] = set
	}
	set[s] = struct{}{}
	h.mu.Unlock()
	return s
}

// Close отписывает и закрывает C. Повторный вызов безопасен.
func (s *Subscription) Close() {
	s.once.Do(func() {
		h := s.hub
		h.mu.Lock()
		if set, ok := h.topics[s.topic]; ok {
			delete(set, s)
			if len(set) == 0 {
				delete(h.topics, s.topic)
			}
		}
		h.mu.Unlock()
		close(s.ch)
	})
}

// Dropped: сколько сообщений подписчик пропустил из-за полного буфера.
func (s *Subscription) Dropped() int64 { return s.dropped.Load() }

// Publish отправляет сообщение подписчикам topic и TopicAll. Каждый подписчик
// получает сообщение не более одного раза.
func (h *Hub) Publish(topic string, msg Response) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	h.deliver(topic, msg)
	if topic != TopicAll {
		h.deliver(TopicAll, msg)
	}
}

func (h *Hub) deliver(topic string, msg Response) {
	for s := range h.topics[topic] {
		select {
		case s.ch <- msg:
		default:
			s.dropped.Add(1)
		}
	}
}

// Subscribers: число активных подписчиков на topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}
