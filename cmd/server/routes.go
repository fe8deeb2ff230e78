package main

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fluxline/workflow-backend/internal/adapters/transport/http/dto"
	httpmw "github.com/fluxline/workflow-backend/internal/adapters/transport/http/middleware"
	authsvc "github.com/fluxline/workflow-backend/internal/app/auth/service"
	wfsvc "github.com/fluxline/workflow-backend/internal/app/workflow/service"
	authErrors "github.com/fluxline/workflow-backend/internal/domain/auth/errors"
	authmodel "github.com/fluxline/workflow-backend/internal/domain/auth/model"
	wfmodel "github.com/fluxline/workflow-backend/internal/domain/workflow/model"
)

func registerRoutes(router *gin.Engine, auth authsvc.Service, workflows wfsvc.Service, zapLog *zap.Logger) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().Unix()})
	})

	authGroup := router.Group("/api/auth")

	authGroup.POST("/register", func(c *gin.Context) {
		var body dto.RegisterDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		zapLog.Info("/register",
			zap.String("user", fmt.Sprintf("%x", sha256.Sum256([]byte(body.Email)))),
		)
		user, err := auth.Register(c.Request.Context(), body)
		if err != nil {
			handleError(c, err)
			return
		}
		c.JSON(http.StatusCreated, toUserResponse(user))
	})

	authGroup.POST("/login", func(c *gin.Context) {
		var body dto.LoginDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		zapLog.Info("/login",
			zap.String("user", fmt.Sprintf("%x", sha256.Sum256([]byte(body.Username)))),
		)
		pair, err := auth.Login(c.Request.Context(), body)
		if err != nil {
			handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.TokenResponse{
			AccessToken:  pair.AccessToken,
			TokenType:    pair.TokenType,
			RefreshToken: pair.RefreshToken,
		})
	})

	authGroup.POST("/refresh", func(c *gin.Context) {
		var body dto.RefreshDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		pair, err := auth.Refresh(c.Request.Context(), body)
		if err != nil {
			handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.TokenResponse{
			AccessToken:  pair.AccessToken,
			TokenType:    pair.TokenType,
			RefreshToken: pair.RefreshToken,
		})
	})

	authGroup.POST("/logout", func(c *gin.Context) {
		var body dto.LogoutDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := auth.Logout(c.Request.Context(), body); err != nil {
			handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "logged out"})
	})

	authGroup.POST("/forgot-password", func(c *gin.Context) {
		var body dto.ForgotPasswordDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		token, err := auth.RequestPasswordReset(c.Request.Context(), body)
		if err != nil {
			handleError(c, err)
			return
		}
		resp := gin.H{"message": "If an account with that email exists, a password reset link has been sent."}
		// The reset link is delivered out of band; the token itself is
		// only exposed in debug builds.
		if gin.IsDebugging() && token != "" {
			resp["token"] = token
		}
		c.JSON(http.StatusOK, resp)
	})

	authGroup.POST("/reset-password", func(c *gin.Context) {
		var body dto.ResetPasswordDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := auth.ResetPassword(c.Request.Context(), body); err != nil {
			handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Password has been reset successfully"})
	})

	authGroup.GET("/me", httpmw.RequireAuth(auth), func(c *gin.Context) {
		user, ok := httpmw.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.JSON(http.StatusOK, toUserResponse(user))
	})

	// Anonymous browsing sees public workflows only.
	router.GET("/api/workflows/public", func(c *gin.Context) {
		ws, err := workflows.List(c.Request.Context(), uuid.Nil)
		if err != nil {
			handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, toWorkflowResponses(ws))
	})

	wfGroup := router.Group("/api/workflows", httpmw.RequireAuth(auth))

	wfGroup.GET("", func(c *gin.Context) {
		user, _ := httpmw.CurrentUser(c)
		ws, err := workflows.List(c.Request.Context(), user.ID)
		if err != nil {
			handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, toWorkflowResponses(ws))
	})

	wfGroup.POST("", func(c *gin.Context) {
		var body dto.WorkflowCreateDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		user, _ := httpmw.CurrentUser(c)
		w, err := workflows.Create(c.Request.Context(), body, user.ID)
		if err != nil {
			handleError(c, err)
			return
		}
		c.JSON(http.StatusCreated, toWorkflowResponse(w))
	})

	wfGroup.GET("/:id", func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid workflow id"})
			return
		}
		w, err := workflows.Get(c.Request.Context(), id)
		if err != nil {
			handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, toWorkflowResponse(w))
	})

	wfGroup.PUT("/:id", func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid workflow id"})
			return
		}
		var body dto.WorkflowCreateDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		w, err := workflows.Update(c.Request.Context(), id, body)
		if err != nil {
			handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, toWorkflowResponse(w))
	})

	wfGroup.DELETE("/:id", func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid workflow id"})
			return
		}
		if err := workflows.Delete(c.Request.Context(), id); err != nil {
			handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "workflow deleted"})
	})
}

func handleError(c *gin.Context, err error) {
	switch {
	case authErrors.IsInvalidArgument(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case authErrors.IsInvalidCredentials(err):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	case authErrors.IsInvalidToken(err):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
	case authErrors.IsAlreadyExists(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case authErrors.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func toUserResponse(u authmodel.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        u.ID.String(),
		Username:  u.Username,
		Email:     u.Email,
		FullName:  u.FullName,
		IsActive:  u.IsActive,
		IsAdmin:   u.IsAdmin,
		CreatedAt: u.CreatedAt,
		LastLogin: u.LastLogin,
	}
}

func toWorkflowResponse(w wfmodel.Workflow) dto.WorkflowResponse {
	return dto.WorkflowResponse{
		ID:          w.ID.String(),
		Name:        w.Name,
		Description: w.Description,
		Version:     w.Version,
		OwnerID:     w.OwnerID.String(),
		IsPublic:    w.IsPublic,
		IsTemplate:  w.IsTemplate,
		Definition:  json.RawMessage(w.Definition),
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}
}

func toWorkflowResponses(ws []wfmodel.Workflow) []dto.WorkflowResponse {
	out := make([]dto.WorkflowResponse, 0, len(ws))
	for _, w := range ws {
		out = append(out, toWorkflowResponse(w))
	}
	return out
}
