package api

import (
	"github.com/gin-gonic/gin"
	"github.com/wfunc/grimoire/internal/errors"
	"github.com/wfunc/grimoire/internal/game/role"
)

// CatalogHandler 角色与剧本目录
type CatalogHandler struct {
	catalog *role.Catalog
}

// NewCatalogHandler 创建目录处理器
func NewCatalogHandler(catalog *role.Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// Roles 角色列表，可按剧本过滤
func (h *CatalogHandler) Roles(c *gin.Context) {
	scriptID := c.Query("script")
	if scriptID == "" {
		respondOK(c, h.catalog.Roles())
		return
	}
	script, ok := h.catalog.Script(scriptID)
	if !ok {
		respondError(c, errors.Newf(errors.ErrScriptNotFound, "剧本 %s", scriptID))
		return
	}
	respondOK(c, h.catalog.ScriptRoles(script))
}

// Scripts 剧本列表
func (h *CatalogHandler) Scripts(c *gin.Context) {
	respondOK(c, h.catalog.Scripts())
}
