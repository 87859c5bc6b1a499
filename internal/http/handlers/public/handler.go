package public

import "github.com/shopvd/backoffice/internal/provider"

// Handler 免登录 action 处理器入口
// 说明：下单、CTV 注册与查询、优惠码校验、登录会话。
type Handler struct {
	*provider.Container
}

// New 创建公开处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
