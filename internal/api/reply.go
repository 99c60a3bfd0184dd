package api

import (
	"context"
	"net/http"
	"strings"

	"epic-tech-ai/backend/internal/reply"
	"epic-tech-ai/backend/pkg/errors"

	"github.com/gin-gonic/gin"
)

// Replier answers a single user message
type Replier interface {
	Reply(ctx context.Context, text string) reply.Reply
}

// ReplyRequest is the body of POST /api/v1/reply
type ReplyRequest struct {
	Text string `json:"text"`
}

// ReplyController exposes the reply service over HTTP
type ReplyController struct {
	replier Replier
}

// NewReplyController creates a new reply controller
func NewReplyController(replier Replier) *ReplyController {
	return &ReplyController{replier: replier}
}

// RegisterRoutesV1 registers the reply routes under the versioned group
func (rc *ReplyController) RegisterRoutesV1(group *gin.RouterGroup) {
	group.POST("/reply", rc.CreateReply)
}

// CreateReply answers the posted text immediately, without the typing delay
func (rc *ReplyController) CreateReply(c *gin.Context) {
	var req ReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewBadRequestError(errors.CodeInvalidRequest, "Request body must be JSON with a text field"))
		return
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		c.Error(errors.NewBadRequestError(errors.CodeEmptyMessage, "Message text is required"))
		return
	}

	c.JSON(http.StatusOK, rc.replier.Reply(c.Request.Context(), text))
}
