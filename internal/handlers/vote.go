package handlers

import (
	"net/http"

	"nutriscan/internal/services"

	"github.com/gin-gonic/gin"
)

type VoteHandler struct {
	votes *services.VoteService
}

func NewVoteHandler(votes *services.VoteService) *VoteHandler {
	return &VoteHandler{votes: votes}
}

type voteRequest struct {
	VoteType string `json:"voteType" binding:"required"`
}

func (h *VoteHandler) VoteDiscussion(c *gin.Context) {
	h.vote(c, services.VoteTargetDiscussion)
}

func (h *VoteHandler) VoteComment(c *gin.Context) {
	h.vote(c, services.VoteTargetComment)
}

// vote 同一用户重复投票会覆盖，返回重新计数后的票数
func (h *VoteHandler) vote(c *gin.Context, target services.VoteTarget) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req voteRequest
	if !bindJSON(c, &req) {
		return
	}

	tally, err := h.votes.CastVote(c.Request.Context(), target, id, currentUserID(c), req.VoteType)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, tally)
}
