package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Freeeeeet/slot_swapper/internal/httpapi/middleware"
	"github.com/Freeeeeet/slot_swapper/internal/httpapi/response"
	"github.com/Freeeeeet/slot_swapper/internal/model"
	"github.com/Freeeeeet/slot_swapper/internal/service"
)

type SlotHandler struct {
	slots *service.SlotService
}

func NewSlotHandler(slots *service.SlotService) *SlotHandler {
	return &SlotHandler{slots: slots}
}

type slotRequest struct {
	Title     *string           `json:"title"`
	StartTime *time.Time        `json:"start_time"`
	EndTime   *time.Time        `json:"end_time"`
	Status    *model.SlotStatus `json:"status"`
}

func (r slotRequest) input() service.SlotInput {
	return service.SlotInput{Title: r.Title, StartTime: r.StartTime, EndTime: r.EndTime, Status: r.Status}
}

func (h *SlotHandler) Create(c *gin.Context) {
	var req slotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondBadRequest(c, "invalid request body: times must be RFC 3339")
		return
	}

	slot, err := h.slots.Create(c.Request.Context(), middleware.UserID(c), req.input())
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"slot": slot})
}

func (h *SlotHandler) List(c *gin.Context) {
	in := service.ListSlotsInput{
		OnlyMine:    c.Query("mine") == "true",
		ExcludeMine: c.Query("exclude_mine") == "true",
	}
	if status := c.Query("status"); status != "" {
		s := model.SlotStatus(status)
		in.Status = &s
	}

	slots, err := h.slots.List(c.Request.Context(), middleware.UserID(c), in)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	if slots == nil {
		slots = []*model.Slot{}
	}
	response.RespondOK(c, gin.H{"slots": slots, "user_id": middleware.UserID(c)})
}

func (h *SlotHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	slot, err := h.slots.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"slot": slot})
}

func (h *SlotHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req slotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondBadRequest(c, "invalid request body: times must be RFC 3339")
		return
	}

	slot, err := h.slots.Update(c.Request.Context(), middleware.UserID(c), id, req.input())
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"slot": slot})
}

func (h *SlotHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.slots.Delete(c.Request.Context(), middleware.UserID(c), id); err != nil {
		response.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondBadRequest(c, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}
