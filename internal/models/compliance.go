package models

// ComplianceFlagKind 标识一条合规标记的种类
type ComplianceFlagKind string

const (
	FlagPriceAnomaly    ComplianceFlagKind = "PRICE_ANOMALY"
	FlagHighAmount      ComplianceFlagKind = "HIGH_AMOUNT"
	FlagDeleteOperation ComplianceFlagKind = "DELETE_OPERATION"
)

// ComplianceFlag 是合规检查派生出的建议性标记。
// 它不是错误：标记只会把 completed 升级为 escalated，不会阻塞输出。
type ComplianceFlag struct {
	Kind   ComplianceFlagKind `bson:"kind" json:"kind"`
	Detail string             `bson:"detail" json:"detail"`
}
