package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"stageranker/internal/auth"
	"stageranker/internal/storage/sqlite"
)

type loginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// handleRegister creates a regular account and returns a token for it.
func (s *Server) handleRegister(c *gin.Context) {
	var req auth.Registration
	if err := c.ShouldBind(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	user, err := auth.Register(c.Request.Context(), s.store, req)
	var regErr *auth.RegistrationError
	if errors.As(err, &regErr) {
		c.JSON(http.StatusBadRequest, gin.H{"errors": regErr.Problems, "username": req.Username, "email": req.Email})
		return
	}
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"user": user, "token": token})
}

// handleLogin exchanges credentials for a token.
func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	user, err := s.store.GetUserByUsername(c.Request.Context(), req.Username)
	if errors.Is(err, sqlite.ErrNotFound) || (err == nil && !auth.CheckPassword(user.PasswordHash, req.Password)) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
		return
	}
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"user": user, "token": token})
}
