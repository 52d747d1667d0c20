package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pageza/mealplan-bot/backend/internal/logger"
	"github.com/pageza/mealplan-bot/backend/internal/middleware"
	"github.com/pageza/mealplan-bot/backend/internal/service"
	"github.com/pageza/mealplan-bot/backend/internal/types"
)

// ActionHandler serves the action-server webhook
type ActionHandler struct {
	dispatcher *service.Dispatcher
}

func NewActionHandler(dispatcher *service.Dispatcher) *ActionHandler {
	return &ActionHandler{dispatcher: dispatcher}
}

// RegisterRoutes mounts the webhook behind the given middleware and the action listing
func (h *ActionHandler) RegisterRoutes(router gin.IRoutes, webhookMiddleware ...gin.HandlerFunc) {
	router.POST("/webhook", append(webhookMiddleware, h.Webhook)...)
	router.GET("/actions", h.ListActions)
}

// Webhook runs the requested action and returns its events and responses
func (h *ActionHandler) Webhook(c *gin.Context) {
	var req types.ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ActionError{Error: "invalid action request: " + err.Error()})
		return
	}

	// A token issued for one conversation may only drive that conversation
	if tokenSender := c.GetString(middleware.SenderIDKey); tokenSender != "" {
		sender := req.SenderID
		if sender == "" {
			sender = req.Tracker.SenderID
		}
		if sender != tokenSender {
			c.JSON(http.StatusForbidden, types.ActionError{
				Error:      "token is not valid for this conversation",
				ActionName: req.NextAction,
			})
			return
		}
	}

	resp, err := h.dispatcher.Run(c.Request.Context(), &req)
	if err != nil {
		if service.IsUnknownAction(err) {
			c.JSON(http.StatusNotFound, types.ActionError{
				Error:      fmt.Sprintf("No registered action found for name '%s'.", req.NextAction),
				ActionName: req.NextAction,
			})
			return
		}
		logger.Error("webhook action failed",
			zap.String("request_id", c.GetString(middleware.RequestIDKey)),
			zap.String("action", req.NextAction),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, types.ActionError{
			Error:      "action failed",
			ActionName: req.NextAction,
		})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListActions returns the registered action names
func (h *ActionHandler) ListActions(c *gin.Context) {
	names := h.dispatcher.Names()
	out := make([]types.ActionInfo, len(names))
	for i, name := range names {
		out[i] = types.ActionInfo{Name: name}
	}
	c.JSON(http.StatusOK, out)
}
