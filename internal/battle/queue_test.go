// queue_test.go

package battle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWaitQueueEnqueue(t *testing.T) {
	q := NewWaitQueue()

	q.Enqueue("a")
	q.Enqueue("b")
	assert.Equal(t, 2, q.Len())
	assert.True(t, q.Contains("a"))
	assert.True(t, q.Contains("b"))

	// 重复入队不追加
	q.Enqueue("a")
	assert.Equal(t, 2, q.Len())
}

func TestWaitQueueFindOpponentExcluding(t *testing.T) {
	tests := []struct {
		name      string
		queued    []string
		exclude   string
		wantID    string
		wantFound bool
		wantLen   int
	}{
		{
			name:      "空队列",
			queued:    nil,
			exclude:   "a",
			wantFound: false,
			wantLen:   0,
		},
		{
			name:      "只有自己",
			queued:    []string{"a"},
			exclude:   "a",
			wantFound: false,
			wantLen:   1,
		},
		{
			name:      "取队头",
			queued:    []string{"b", "c"},
			exclude:   "a",
			wantID:    "b",
			wantFound: true,
			wantLen:   1,
		},
		{
			name:      "跳过自己取下一个",
			queued:    []string{"a", "b"},
			exclude:   "a",
			wantID:    "b",
			wantFound: true,
			wantLen:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewWaitQueue()
			for _, id := range tt.queued {
				q.Enqueue(id)
			}

			id, found := q.FindOpponentExcluding(tt.exclude)
			assert.Equal(t, tt.wantFound, found)
			if tt.wantFound {
				assert.Equal(t, tt.wantID, id)
				assert.False(t, q.Contains(id))
			}
			assert.Equal(t, tt.wantLen, q.Len())
		})
	}
}

func TestWaitQueueRemove(t *testing.T) {
	q := NewWaitQueue()
	q.Enqueue("a")
	q.Enqueue("b")
	q.Enqueue("c")

	q.Remove("b")
	assert.Equal(t, 2, q.Len())
	assert.False(t, q.Contains("b"))

	// 移除不存在的ID无副作用
	q.Remove("x")
	assert.Equal(t, 2, q.Len())

	// 剩余条目保持先进先出顺序
	id, found := q.FindOpponentExcluding("")
	assert.True(t, found)
	assert.Equal(t, "a", id)
}
