// server.go

package battle

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/jacl-coder/SkyDuel-Server/config"
	"github.com/jacl-coder/SkyDuel-Server/pkg/token"
)

// BattleServer 对战服务器
type BattleServer struct {
	config  *config.Config
	tokens  *token.Manager
	users   UserStore
	catalog Catalog
	boards  LeaderboardStore
	mirror  RankingMirror

	// mu 守护下方全部共享状态：连接表、会话注册表、等待队列与房间存储。
	// 登录、匹配、结算、断线清理都在这把锁下串行推进，
	// 持久化调用必须先释放锁，返回后重新加锁并按ID重查会话与房间。
	mu       sync.Mutex
	conns    map[string]*Conn
	registry *Registry
	queue    *WaitQueue
	rooms    *RoomStore

	httpServer *http.Server
	isRunning  bool
}

// NewBattleServer 创建对战服务器
func NewBattleServer(cfg *config.Config, tokens *token.Manager, users UserStore, catalog Catalog, boards LeaderboardStore, mirror RankingMirror) *BattleServer {
	return &BattleServer{
		config:   cfg,
		tokens:   tokens,
		users:    users,
		catalog:  catalog,
		boards:   boards,
		mirror:   mirror,
		conns:    make(map[string]*Conn),
		registry: NewRegistry(),
		queue:    NewWaitQueue(),
		rooms:    NewRoomStore(),
	}
}

// Start 启动对战服务器
func (s *BattleServer) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("对战服务器已在运行")
	}
	s.isRunning = true
	s.mu.Unlock()

	addr := fmt.Sprintf(":%d", s.config.Server.BattlePort)
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.createHandler(),
	}

	log.Printf("对战服务器启动，监听 %s", addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("对战服务器启动失败: %w", err)
	}
	return nil
}

// Stop 停止对战服务器
func (s *BattleServer) Stop() error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false

	// 关闭所有连接
	for _, conn := range s.conns {
		conn.IsAlive = false
		conn.Conn.Close()
	}
	s.conns = make(map[string]*Conn)
	s.registry = NewRegistry()
	s.queue = NewWaitQueue()
	s.rooms = NewRoomStore()
	s.mu.Unlock()

	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("对战服务器关闭失败: %w", err)
		}
	}

	log.Println("对战服务器已停止")
	return nil
}

// createHandler 创建HTTP路由
func (s *BattleServer) createHandler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/ws", s.handleWSConnection)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		online := s.registry.Len()
		waiting := s.queue.Len()
		rooms := s.rooms.Len()
		s.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","online":%d,"waiting":%d,"rooms":%d}`, online, waiting, rooms)
	})

	return mux
}

// sendToSession 向会话发送一条消息，连接缓冲区满时丢弃并记录日志
func (s *BattleServer) sendToSession(sess *Session, msgType string, payload interface{}) {
	if sess == nil || sess.Conn == nil {
		return
	}

	data, err := encodeMessage(msgType, payload)
	if err != nil {
		log.Printf("序列化消息失败 type=%s: %v", msgType, err)
		return
	}

	if !sess.Conn.push(data) {
		log.Printf("用户 %s 发送缓冲区已满，丢弃消息 type=%s", sess.UserID, msgType)
	}
}
