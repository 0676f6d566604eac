package agent

import "context"

// Canonical names of the domain agents. The fan-out dispatch plan and the
// aggregated result keys both use these values.
const (
	NameCustomerService = "customer_service"
	NameInventory       = "inventory"
	NamePricing         = "pricing"
	NameAudit           = "audit"
)

// Agent 定义了系统中所有领域 agent 必须实现的接口。
// 编排器只通过该接口调用 agent：任何失败都被视为不透明的 handler 错误。
type Agent interface {
	// Metadata 返回 agent 的能力描述。
	Metadata() Metadata
	// Handle 处理一个结构化请求并返回结构化结果。
	Handle(ctx context.Context, payload map[string]interface{}) (map[string]interface{}, error)
}

// Metadata 包含了描述一个 agent 能力所需的所有信息。
type Metadata struct {
	Name              string // agent 的唯一名称，用作路由键
	Capability        string // 对 agent 能力的总体描述
	InputDescription  string // 对 agent 所需输入内容的描述
	OutputDescription string // 对 agent 输出内容的描述
}
