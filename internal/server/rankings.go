package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"stageranker/internal/models"
	"stageranker/internal/ranking"
)

type officialRankingRequest struct {
	Ranks map[string]int `json:"ranks"`
}

// handleSubmitRanking stores the caller's ranking from form fields named rank_<taskID>.
func (s *Server) handleSubmitRanking(c *gin.Context) {
	stageID, ok := parseID(c, "id")
	if !ok {
		return
	}

	view, err := s.rankings.SubmitRanking(c.Request.Context(), currentUser(c).ID, stageID, c.PostForm)
	var rejection *ranking.Rejection
	if errors.As(err, &rejection) {
		s.metrics.submission("rejected")
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"errors":       rejection.Reasons,
			"stage":        view.Stage,
			"stages":       view.Stages,
			"tasks":        view.Tasks,
			"ranking":      view.Ranking,
			"rank_choices": view.RankChoices,
			"max_rank":     view.MaxRank,
		})
		return
	}
	if err != nil {
		s.metrics.submission("error")
		s.respondStoreError(c, err)
		return
	}

	s.metrics.submission("accepted")
	respondSuccess(c, http.StatusOK, gin.H{"status": "saved", "ranking": view.Ranking})
}

// handleSetOfficialRanking replaces the official ranking of a stage.
func (s *Server) handleSetOfficialRanking(c *gin.Context) {
	stageID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req officialRankingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	ranks := make(models.Ranks, len(req.Ranks))
	for key, rank := range req.Ranks {
		taskID, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			s.respondError(c, http.StatusBadRequest, fmt.Errorf("invalid task id %q", key))
			return
		}
		ranks[taskID] = rank
	}

	if err := s.rankings.SetOfficialRanking(c.Request.Context(), currentUser(c), stageID, ranks); err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "saved", "ranks": ranks})
}

// handleClearOfficialRanking deletes the official ranking of a stage.
func (s *Server) handleClearOfficialRanking(c *gin.Context) {
	stageID, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := s.rankings.ClearOfficialRanking(c.Request.Context(), currentUser(c), stageID); err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}

// handleListRankings lists the user ranking rows of a stage, optionally for a
// single user given as ?user_id=.
func (s *Server) handleListRankings(c *gin.Context) {
	stageID, ok := parseID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := s.store.GetStage(ctx, stageID); err != nil {
		s.respondStoreError(c, err)
		return
	}

	var (
		rankings []models.UserRanking
		err      error
	)
	if raw := c.Query("user_id"); raw != "" {
		userID, perr := strconv.ParseInt(raw, 10, 64)
		if perr != nil {
			s.respondError(c, http.StatusBadRequest, fmt.Errorf("invalid user id %q", raw))
			return
		}
		rankings, err = s.store.ListUserRankingsOf(ctx, stageID, userID)
	} else {
		rankings, err = s.store.ListUserRankings(ctx, stageID)
	}
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"rankings": rankings})
}
