package api

import (
	"github.com/gin-gonic/gin"

	"github.com/Kunguma1616/AI-Shop-Assistant-for-Small-Businesses/internal/agent"
)

// SetupRouter 配置和返回一个 Gin 引擎实例。
func SetupRouter(a *API, jwtSecret string) *gin.Engine {
	// 使用默认中间件 (logger, recovery) 创建一个 Gin 引擎。
	r := gin.Default()

	r.GET("/health", a.HealthHandler)

	authMiddleware := AuthMiddleware(jwtSecret)

	// 编排入口与任务查询
	ai := r.Group("/api/ai")
	ai.Use(authMiddleware)
	{
		ai.POST("/query", a.ProcessQueryHandler)
		ai.GET("/task/:id", a.GetTaskHandler)
		ai.GET("/audit", a.GetAuditHandler)
		ai.GET("/audit/export", a.ExportAuditHandler)
	}

	// 直连各 agent 的代理端点
	proxies := r.Group("/api")
	proxies.Use(authMiddleware)
	{
		proxies.POST("/inventory/query", a.AgentProxyHandler(agent.NameInventory))
		proxies.POST("/inventory/update", a.AgentProxyHandler(agent.NameInventory))
		proxies.POST("/pricing/calculate", a.AgentProxyHandler(agent.NamePricing))
		proxies.POST("/pricing/recommend", a.AgentProxyHandler(agent.NamePricing))
		proxies.POST("/audit/compliance-check", a.AgentProxyHandler(agent.NameAudit))
		proxies.POST("/customer/profile", a.AgentProxyHandler(agent.NameCustomerService))
		proxies.POST("/customer/support-ticket", a.AgentProxyHandler(agent.NameCustomerService))
		proxies.POST("/customer/loyalty", a.AgentProxyHandler(agent.NameCustomerService))
	}

	// 审计账本的实时推送
	ws := r.Group("/ws")
	ws.Use(authMiddleware)
	{
		ws.GET("/audit", a.WebSocketHandler)
	}

	return r
}
