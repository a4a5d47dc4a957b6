package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"mssql-openapi/pkg/lark"
	"mssql-openapi/pkg/models"
	"mssql-openapi/pkg/resource"
	"mssql-openapi/pkg/sync"
	"mssql-openapi/pkg/util"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 100
)

// Health 数据库连通性检查，不需要 api key
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	resp := HealthResponse{OK: true, DB: DBHealth{Connected: true}}
	if err := h.resources.Ping(ctx); err != nil {
		resp = HealthResponse{DB: DBHealth{Error: err.Error()}}
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListItems GET /v1/:res/items
// 参数: page, size|pageSize, sort, dir, match, filter[Col]=val
func (h *Handler) ListItems(c *gin.Context) {
	spec := resource.QuerySpec{
		Page:      util.GetIntParam(c, 1, "page"),
		PageSize:  util.GetIntParam(c, resource.DefaultPageSize, "size", "pageSize"),
		Sort:      util.GetParam(c, "sort"),
		Direction: resource.ParseDirection(util.GetParam(c, "dir")),
		Match:     resource.ParseMatchMode(util.GetParam(c, "match")),
		Filters:   c.QueryMap("filter"),
	}
	page, err := h.resources.List(c.Request.Context(), c.Param("res"), spec)
	if err != nil {
		respondError(c, err)
		return
	}
	util.Ok(c, page)
}

// GetItem GET /v1/:res/items/:id?idCol=
func (h *Handler) GetItem(c *gin.Context) {
	item, err := h.resources.GetByID(c.Request.Context(), c.Param("res"), c.Param("id"), util.GetParam(c, "idCol"))
	if err != nil {
		respondError(c, err)
		return
	}
	if item == nil {
		util.ErrWithCode(c, http.StatusNotFound, "not_found")
		return
	}
	util.Ok(c, gin.H{"item": item})
}

// ListOrders GET /v1/:res/orders?customercode=&billcode=
// 带 billcode 时返回单个订单
func (h *Handler) ListOrders(c *gin.Context) {
	customerCode := util.GetParam(c, "customercode")
	if customerCode == "" {
		util.ErrWithCode(c, http.StatusBadRequest, "invalid_customercode")
		return
	}
	if billCode := util.GetParam(c, "billcode"); billCode != "" {
		h.order(c, customerCode, billCode)
		return
	}
	orders, err := h.resources.ListOrders(c.Request.Context(), c.Param("res"), customerCode)
	if err != nil {
		respondError(c, err)
		return
	}
	util.Ok(c, gin.H{"orders": orders})
}

// GetOrder GET /v1/:res/orders/:billcode?customercode=
func (h *Handler) GetOrder(c *gin.Context) {
	customerCode := util.GetParam(c, "customercode")
	if customerCode == "" {
		util.ErrWithCode(c, http.StatusBadRequest, "invalid_customercode")
		return
	}
	billCode := strings.TrimSpace(c.Param("billcode"))
	if billCode == "" {
		util.ErrWithCode(c, http.StatusBadRequest, "invalid_billcode")
		return
	}
	h.order(c, customerCode, billCode)
}

func (h *Handler) order(c *gin.Context, customerCode, billCode string) {
	order, err := h.resources.GetOrder(c.Request.Context(), c.Param("res"), customerCode, billCode)
	if err != nil {
		respondError(c, err)
		return
	}
	util.Ok(c, gin.H{"order": order})
}

// LarkFields GET /v1/lark/fields?appId&tableId&pageSize&viewId
func (h *Handler) LarkFields(c *gin.Context) {
	appID := util.GetParam(c, "appId")
	tableID := util.GetParam(c, "tableId")
	if appID == "" || tableID == "" {
		util.ErrWithCode(c, http.StatusBadRequest, "invalid_app_or_table")
		return
	}
	data, err := h.fields.ListFields(c.Request.Context(), lark.TableRef{AppID: appID, TableID: tableID}, lark.FieldsOptions{
		PageSize: util.GetIntParam(c, 0, "pageSize"),
		ViewID:   util.GetParam(c, "viewId"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	util.Ok(c, data)
}

// LarkSync POST /v1/lark/sync
func (h *Handler) LarkSync(c *gin.Context) {
	var req sync.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	req.Trigger = models.TriggerManual
	// 同步一旦开始就不随客户端断开而中止
	res, err := h.syncer.Run(context.WithoutCancel(c.Request.Context()), req)
	if err != nil {
		respondError(c, err)
		return
	}
	util.Ok(c, res)
}

// SyncRuns GET /v1/lark/sync/runs?limit=&appId=
func (h *Handler) SyncRuns(c *gin.Context) {
	if h.history == nil {
		util.ErrWithCode(c, http.StatusNotFound, "history_disabled")
		return
	}
	limit := util.GetIntParam(c, defaultRunsLimit, "limit")
	if limit < 1 || limit > maxRunsLimit {
		limit = defaultRunsLimit
	}
	runs, err := h.history.RecentRuns(limit, util.GetParam(c, "appId"))
	if err != nil {
		respondError(c, err)
		return
	}
	util.Ok(c, gin.H{"runs": runs})
}
