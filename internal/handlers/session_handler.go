package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JaredJameson/TESTHUB/internal/models"
	"github.com/JaredJameson/TESTHUB/internal/services"
	"github.com/JaredJameson/TESTHUB/internal/utils"
	"github.com/JaredJameson/TESTHUB/internal/validator"
)

// SessionHandler exposes the test-taking endpoints. All of them act on the
// authenticated student's own session; the session key is the account email.
type SessionHandler struct {
	BaseHandler
	service   services.SessionService
	validator *validator.Validator
}

func NewSessionHandler(service services.SessionService, validator *validator.Validator, logger utils.Logger) *SessionHandler {
	return &SessionHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
		validator:   validator,
	}
}

// StartTestRequest optionally overrides the profile fields on the identity
// account. Useful when the identity provider holds no display name.
type StartTestRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	StudentID string `json:"student_id"`
}

type AnswerRequest struct {
	QuestionID int    `json:"question_id" binding:"required"`
	Choice     string `json:"choice" binding:"required"`
}

type NavigateRequest struct {
	Index int `json:"index"`
}

type SubmitRequest struct {
	Confirm bool `json:"confirm"`
}

// StartTest begins a new attempt, or resumes the one still in progress.
func (h *SessionHandler) StartTest(c *gin.Context) {
	h.LogRequest(c, "Starting test session")

	user, ok := h.requireUser(c)
	if !ok {
		return
	}

	var req StartTestRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_payload",
				Message: "invalid request payload",
				Details: err.Error(),
			})
			return
		}
	}

	view, err := h.service.StartTest(c.Request.Context(), h.studentInfo(user, req))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{Data: view})
}

// GetSession returns the current session snapshot.
func (h *SessionHandler) GetSession(c *gin.Context) {
	user, ok := h.requireUser(c)
	if !ok {
		return
	}

	view, err := h.service.GetSession(c.Request.Context(), user.Email)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: view})
}

// AnswerQuestion records a choice for one question.
func (h *SessionHandler) AnswerQuestion(c *gin.Context) {
	user, ok := h.requireUser(c)
	if !ok {
		return
	}

	var req AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_payload",
			Message: "invalid request payload",
			Details: err.Error(),
		})
		return
	}

	view, err := h.service.AnswerQuestion(c.Request.Context(), user.Email, req.QuestionID, req.Choice)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: view})
}

// Navigate moves the cursor to another question.
func (h *SessionHandler) Navigate(c *gin.Context) {
	user, ok := h.requireUser(c)
	if !ok {
		return
	}

	var req NavigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_payload",
			Message: "invalid request payload",
			Details: err.Error(),
		})
		return
	}

	view, err := h.service.Navigate(c.Request.Context(), user.Email, req.Index)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: view})
}

// Submit finishes the test. Without confirm=true the response asks for
// confirmation when unanswered questions remain.
func (h *SessionHandler) Submit(c *gin.Context) {
	h.LogRequest(c, "Submitting test session")

	user, ok := h.requireUser(c)
	if !ok {
		return
	}

	var req SubmitRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_payload",
				Message: "invalid request payload",
				Details: err.Error(),
			})
			return
		}
	}

	resp, err := h.service.Submit(c.Request.Context(), user.Email, req.Confirm)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: resp})
}

// studentInfo builds the student identity from the account, letting request
// fields fill gaps in the identity provider's profile.
func (h *SessionHandler) studentInfo(user *models.User, req StartTestRequest) services.StudentInfo {
	info := services.StudentInfo{
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		StudentID: user.StudentID,
	}
	if req.FirstName != "" {
		info.FirstName = req.FirstName
	}
	if req.LastName != "" {
		info.LastName = req.LastName
	}
	if req.StudentID != "" {
		info.StudentID = req.StudentID
	}
	return info
}
