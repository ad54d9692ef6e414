package service

import (
	"sync"
)

func NewSSEClientMap[T any]() *SSEClientMap[T] {
	return &SSEClientMap[T]{
		clients: make(map[string]map[string]chan T),
	}
}

// SSEClientMap holds live subscriber channels keyed by run id and client uid.
type SSEClientMap[T any] struct {
	m       sync.Mutex
	clients map[string]map[string]chan T
}

func (cm *SSEClientMap[T]) AddClient(runID, uid string) chan T {
	cm.m.Lock()
	defer cm.m.Unlock()
	if cm.clients[runID] == nil {
		cm.clients[runID] = make(map[string]chan T)
	}
	ch := make(chan T, 8)
	cm.clients[runID][uid] = ch
	return ch
}

func (cm *SSEClientMap[T]) RemoveClient(runID, uid string) {
	cm.m.Lock()
	defer cm.m.Unlock()
	if ch, ok := cm.clients[runID][uid]; ok {
		close(ch)
		delete(cm.clients[runID], uid)
	}
	if len(cm.clients[runID]) == 0 {
		delete(cm.clients, runID)
	}
}

func (cm *SSEClientMap[T]) SendToClients(runID string, message T) {
	cm.m.Lock()
	defer cm.m.Unlock()
	for i := range cm.clients[runID] {
		// slow subscribers drop events instead of stalling a run
		select {
		case cm.clients[runID][i] <- message:
		default:
		}
	}
}
