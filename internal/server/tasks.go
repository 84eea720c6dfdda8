package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stageranker/internal/models"
)

type taskRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Order       *int64  `json:"order"`
	IsActive    *bool   `json:"is_active"`
}

// handleListTasks fetches every task of a stage, including inactive ones.
func (s *Server) handleListTasks(c *gin.Context) {
	stageID, ok := parseID(c, "id")
	if !ok {
		return
	}

	tasks, err := s.store.ListTasks(c.Request.Context(), stageID)
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"tasks": tasks})
}

// handleCreateTask adds a task to a stage. New tasks are active unless stated otherwise.
func (s *Server) handleCreateTask(c *gin.Context) {
	stageID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	task := models.Task{
		StageID:     stageID,
		Name:        getString(req.Name),
		Description: getString(req.Description),
		IsActive:    true,
	}
	if req.Order != nil {
		task.Order = *req.Order
	}
	if req.IsActive != nil {
		task.IsActive = *req.IsActive
	}

	created, err := s.store.CreateTask(c.Request.Context(), task)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"task": created})
}

// handleUpdateTask edits task fields, including activation.
func (s *Server) handleUpdateTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	updates := map[string]any{}
	if req.Name != nil && *req.Name != "" {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Order != nil {
		updates["order"] = *req.Order
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	task, err := s.store.UpdateTask(c.Request.Context(), id, updates)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": task})
}

// handleDeleteTask removes a task completely.
func (s *Server) handleDeleteTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := s.store.DeleteTask(c.Request.Context(), id); err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}

func getString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
