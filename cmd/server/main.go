// main.go

package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jacl-coder/SkyDuel-Server/config"
	"github.com/jacl-coder/SkyDuel-Server/internal/battle"
	"github.com/jacl-coder/SkyDuel-Server/internal/gateway"
	"github.com/jacl-coder/SkyDuel-Server/internal/models"
	"github.com/jacl-coder/SkyDuel-Server/pkg/db"
	"github.com/jacl-coder/SkyDuel-Server/pkg/token"
)

func main() {
	// 解析命令行参数
	configPath := flag.String("config", "config/config.yaml", "配置文件路径")
	serviceType := flag.String("service", "all", "服务类型 (battle, gateway, all)")
	flag.Parse()

	// 加载配置
	if err := config.LoadConfig(*configPath); err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 初始化数据库连接
	if err := db.InitPostgres(); err != nil {
		log.Fatalf("初始化PostgreSQL失败: %v", err)
	}
	defer db.Close()

	// 初始化Redis连接
	if err := db.InitRedis(); err != nil {
		log.Fatalf("初始化Redis失败: %v", err)
	}
	defer db.CloseRedis()

	// 令牌管理器由网关与对战服务共用
	tokens := token.NewManager(
		config.GlobalConfig.Auth.JWTSecret,
		time.Duration(config.GlobalConfig.Auth.TokenTTLHour)*time.Hour,
	)

	var battleServer *battle.BattleServer

	// 根据服务类型启动不同的服务
	switch *serviceType {
	case "battle":
		battleServer = startBattleServer(tokens)
	case "gateway":
		startGatewayServer(tokens)
	case "all":
		battleServer = startBattleServer(tokens)
		startGatewayServer(tokens)
	default:
		log.Fatalf("未知的服务类型: %s", *serviceType)
	}

	// 等待中断信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("接收到关闭信号，正在关闭服务器...")

	if battleServer != nil {
		if err := battleServer.Stop(); err != nil {
			log.Printf("关闭对战服务器失败: %v", err)
		}
	}

	log.Println("服务器已安全关闭")
}

// startBattleServer 启动对战服务器
func startBattleServer(tokens *token.Manager) *battle.BattleServer {
	server := battle.NewBattleServer(
		&config.GlobalConfig,
		tokens,
		models.NewUserStore(),
		models.NewCatalogStore(),
		models.NewLeaderboardStore(),
		models.NewRedisLeaderboard(),
	)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("启动对战服务器失败: %v", err)
		}
	}()

	log.Println("对战服务器已启动")
	return server
}

// startGatewayServer 启动网关服务器
func startGatewayServer(tokens *token.Manager) {
	gatewayServer := gateway.NewGateway(&config.GlobalConfig, tokens)

	if err := gatewayServer.Start(); err != nil {
		log.Fatalf("启动网关服务失败: %v", err)
	}

	log.Println("网关服务已启动")
}
