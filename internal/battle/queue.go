// queue.go

package battle

// WaitQueue 匹配等待队列（FIFO）。
// 队列本身不加锁，所有访问都必须持有战斗服务器的状态锁。
type WaitQueue struct {
	ids []string
}

// NewWaitQueue 创建等待队列
func NewWaitQueue() *WaitQueue {
	return &WaitQueue{}
}

// Enqueue 追加到队尾，已在队列中时不重复追加
func (q *WaitQueue) Enqueue(userID string) {
	if q.Contains(userID) {
		return
	}
	q.ids = append(q.ids, userID)
}

// FindOpponentExcluding 从队头扫描第一个不等于指定ID的条目，
// 找到后将其移出队列并返回。永远不会把玩家匹配给自己。
func (q *WaitQueue) FindOpponentExcluding(userID string) (string, bool) {
	for i, id := range q.ids {
		if id == userID {
			continue
		}
		q.ids = append(q.ids[:i], q.ids[i+1:]...)
		return id, true
	}
	return "", false
}

// Remove 从队列中移除指定ID，不存在时无操作
func (q *WaitQueue) Remove(userID string) {
	for i, id := range q.ids {
		if id == userID {
			q.ids = append(q.ids[:i], q.ids[i+1:]...)
			return
		}
	}
}

// Contains 指定ID是否在队列中
func (q *WaitQueue) Contains(userID string) bool {
	for _, id := range q.ids {
		if id == userID {
			return true
		}
	}
	return false
}

// Len 队列长度
func (q *WaitQueue) Len() int {
	return len(q.ids)
}
