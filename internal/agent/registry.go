package agent

import "sync"

// Registry 在内存中存储和管理 Agent 实例。
type Registry struct {
	agents map[string]Agent
	mutex  sync.RWMutex
}

// NewRegistry 创建一个新的注册表实例。
func NewRegistry() *Registry {
	return &Registry{
		agents: make(map[string]Agent),
	}
}

// Register 将一个 Agent 实例添加到注册表。
func (r *Registry) Register(a Agent) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.agents[a.Metadata().Name] = a
}

// Get 根据名称检索一个 Agent。
func (r *Registry) Get(name string) (Agent, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	a, found := r.agents[name]
	return a, found
}

// ListMetadata 返回所有已注册 Agent 的元数据列表。
func (r *Registry) ListMetadata() []Metadata {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	var metadataList []Metadata
	for _, a := range r.agents {
		metadataList = append(metadataList, a.Metadata())
	}
	return metadataList
}
