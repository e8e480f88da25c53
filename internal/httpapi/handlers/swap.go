package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Freeeeeet/slot_swapper/internal/httpapi/middleware"
	"github.com/Freeeeeet/slot_swapper/internal/httpapi/response"
	"github.com/Freeeeeet/slot_swapper/internal/model"
	"github.com/Freeeeeet/slot_swapper/internal/service"
)

type SwapHandler struct {
	swaps *service.SwapService
}

func NewSwapHandler(swaps *service.SwapService) *SwapHandler {
	return &SwapHandler{swaps: swaps}
}

func (h *SwapHandler) Propose(c *gin.Context) {
	var req struct {
		RequesteeID     uuid.UUID `json:"requestee_id"`
		MySlotID        uuid.UUID `json:"my_slot_id"`
		RequesteeSlotID uuid.UUID `json:"requestee_slot_id"`
		Message         string    `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondBadRequest(c, "invalid request body")
		return
	}
	if req.RequesteeID == uuid.Nil || req.MySlotID == uuid.Nil || req.RequesteeSlotID == uuid.Nil {
		response.RespondBadRequest(c, "requestee_id, my_slot_id and requestee_slot_id are required")
		return
	}

	details, err := h.swaps.Propose(c.Request.Context(), middleware.UserID(c), service.ProposeInput{
		RequesteeID:     req.RequesteeID,
		MySlotID:        req.MySlotID,
		RequesteeSlotID: req.RequesteeSlotID,
		Message:         req.Message,
	})
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{
		"swap_request":   details.Swap,
		"requester_slot": details.RequesterSlot,
		"requestee_slot": details.RequesteeSlot,
	})
}

func (h *SwapHandler) Accept(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	details, err := h.swaps.Accept(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"swap_request":   details.Swap,
		"requester_slot": details.RequesterSlot,
		"requestee_slot": details.RequesteeSlot,
	})
}

func (h *SwapHandler) Reject(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	details, err := h.swaps.Reject(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"swap_request": details.Swap})
}

func (h *SwapHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	details, err := h.swaps.GetDetails(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, details)
}

func (h *SwapHandler) ListPending(c *gin.Context) {
	swaps, err := h.swaps.ListPending(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"pending_swaps": nonNil(swaps)})
}

func (h *SwapHandler) ListOutgoing(c *gin.Context) {
	swaps, err := h.swaps.ListOutgoing(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"outgoing_swaps": nonNil(swaps)})
}

func nonNil(swaps []*model.SwapRequest) []*model.SwapRequest {
	if swaps == nil {
		return []*model.SwapRequest{}
	}
	return swaps
}
