package admin

import "github.com/shopvd/backoffice/internal/provider"

// Handler 后台管理 action 处理器入口
// 说明：该处理器仅用于需要会话与角色授权的 action。
type Handler struct {
	*provider.Container
}

// New 创建后台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
