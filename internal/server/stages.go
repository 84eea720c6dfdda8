package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stageranker/internal/models"
)

type stageRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	Order       int64  `json:"order"`
}

func (r stageRequest) stage(id int64) models.Stage {
	return models.Stage{ID: id, Name: r.Name, Description: r.Description, ImageURL: r.ImageURL, Order: r.Order}
}

// handleListStages returns all stages for the landing page.
func (s *Server) handleListStages(c *gin.Context) {
	stages, err := s.store.ListStages(c.Request.Context())
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"stages": stages})
}

// handleStageView returns a stage with the caller's ranking and score.
func (s *Server) handleStageView(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	view, err := s.rankings.StageView(c.Request.Context(), currentUser(c).ID, id)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, view)
}

// handleCreateStage creates a new stage.
func (s *Server) handleCreateStage(c *gin.Context) {
	var req stageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	stage, err := s.store.CreateStage(c.Request.Context(), req.stage(0))
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"stage": stage})
}

// handleUpdateStage edits an existing stage.
func (s *Server) handleUpdateStage(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req stageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	stage, err := s.store.UpdateStage(c.Request.Context(), req.stage(id))
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"stage": stage})
}

// handleDeleteStage removes a stage with its tasks and rankings.
func (s *Server) handleDeleteStage(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := s.store.DeleteStage(c.Request.Context(), id); err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}
