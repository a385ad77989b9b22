package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"linegraph/algo"
	"linegraph/model"
	"linegraph/utils"
)

// Handler HTTP 合并接口
type Handler struct {
	Engine *algo.Engine
}

// CoordRequest 一个端点坐标
type CoordRequest struct {
	Lon *float64 `json:"lon" binding:"required"`
	Lat *float64 `json:"lat" binding:"required"`
}

// EdgeRequest 合并一条边的请求
type EdgeRequest struct {
	From   CoordRequest   `json:"from" binding:"required"`
	To     CoordRequest   `json:"to" binding:"required"`
	Weight *float64       `json:"weight,omitempty"` // 不传则按 Haversine 计算
	Attrs  map[string]any `json:"attrs,omitempty"`
}

// EdgeResponse 合并结果
type EdgeResponse struct {
	FromID string  `json:"from_id"`
	ToID   string  `json:"to_id"`
	Weight float64 `json:"weight"`
	Case   string  `json:"case"`
	Status string  `json:"status"`
	Error  string  `json:"error,omitempty"`
}

// BatchResponse 批量合并结果
type BatchResponse struct {
	Applied    int            `json:"applied"`
	Duplicates int            `json:"duplicates"`
	Failed     int            `json:"failed"`
	Results    []EdgeResponse `json:"results"`
}

func (r EdgeRequest) candidate() model.CandidateEdge {
	from := model.Coord{Lon: *r.From.Lon, Lat: *r.From.Lat}
	to := model.Coord{Lon: *r.To.Lon, Lat: *r.To.Lat}
	weight := 0.0
	if r.Weight != nil {
		weight = *r.Weight
	} else {
		weight = utils.EdgeWeight(from, to)
	}
	return model.CandidateEdge{From: from, To: to, Weight: weight, Attrs: r.Attrs}
}

func toResponse(o algo.Outcome) EdgeResponse {
	resp := EdgeResponse{
		FromID: o.FromID,
		ToID:   o.ToID,
		Weight: o.Weight,
		Case:   o.Case.String(),
		Status: string(o.Status),
	}
	if o.Err != nil {
		resp.Error = o.Err.Error()
	}
	return resp
}

// MergeEdge 合并一条边
func (h *Handler) MergeEdge(c *gin.Context) {
	var req EdgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求参数错误: " + err.Error()})
		return
	}

	out := h.Engine.Merge(c.Request.Context(), req.candidate())
	switch out.Status {
	case algo.StatusApplied:
		c.JSON(http.StatusCreated, toResponse(out))
	case algo.StatusDuplicate:
		c.JSON(http.StatusOK, toResponse(out))
	default:
		c.JSON(http.StatusInternalServerError, toResponse(out))
	}
}

// MergeBatch 按顺序合并多条边，单条失败不影响其它边
func (h *Handler) MergeBatch(c *gin.Context) {
	var reqs []EdgeRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求参数错误: " + err.Error()})
		return
	}
	for i := range reqs {
		if reqs[i].From.Lon == nil || reqs[i].From.Lat == nil || reqs[i].To.Lon == nil || reqs[i].To.Lat == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "请求参数错误: 坐标缺失", "index": i})
			return
		}
	}

	resp := BatchResponse{Results: make([]EdgeResponse, 0, len(reqs))}
	for _, req := range reqs {
		out := h.Engine.Merge(c.Request.Context(), req.candidate())
		switch out.Status {
		case algo.StatusApplied:
			resp.Applied++
		case algo.StatusDuplicate:
			resp.Duplicates++
		default:
			resp.Failed++
		}
		resp.Results = append(resp.Results, toResponse(out))
	}
	c.JSON(http.StatusOK, resp)
}
