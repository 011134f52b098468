package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"gokw/app"
	"gokw/domain/core"
	"gokw/domain/dataset"
	"gokw/domain/stats"
	"gokw/domain/testcov"
	apperrors "gokw/internal/errors"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// CheckRequest asks for the disposition of a matrix and group assignment
type CheckRequest struct {
	Matrix       *dataset.FeatureMatrix   `json:"matrix" binding:"required"`
	Groups       *dataset.GroupAssignment `json:"groups" binding:"required"`
	MinGroupSize *int                     `json:"min_group_size"`
}

// CheckResponse is the checker's decision
type CheckResponse struct {
	Disposition stats.Disposition       `json:"disposition"`
	Groups      []core.GroupLabel       `json:"groups"`
	Sizes       map[core.GroupLabel]int `json:"sizes"`
	Error       *ErrorBody              `json:"error,omitempty"`
}

// ComputeRequest runs one comparison and records it
type ComputeRequest struct {
	Name         string                   `json:"name"`
	Matrix       *dataset.FeatureMatrix   `json:"matrix" binding:"required"`
	Groups       *dataset.GroupAssignment `json:"groups" binding:"required"`
	MinGroupSize *int                     `json:"min_group_size"`
	Workers      int                      `json:"workers" binding:"omitempty,min=1,max=256"`
}

// ErrorBody is the error envelope of every failed request
type ErrorBody struct {
	Code        string          `json:"code"`
	Message     string          `json:"message"`
	NotInGroups []core.SampleID `json:"not_in_groups,omitempty"`
	NotInMatrix []core.SampleID `json:"not_in_matrix,omitempty"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleCheck(c *gin.Context) {
	var req CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortBind(c, err)
		return
	}

	disposition, err := s.checker.Check(req.Matrix, req.Groups, s.minGroupSize(req.MinGroupSize))
	resp := CheckResponse{
		Disposition: disposition,
		Groups:      req.Groups.Groups(),
		Sizes:       req.Groups.Sizes(),
	}
	if err != nil {
		var elig *app.EligibilityError
		if !errors.As(err, &elig) {
			s.abortError(c, err)
			return
		}
		resp.Error = errorBody(err)
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleCompute(c *gin.Context) {
	var req ComputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortBind(c, err)
		return
	}

	name := req.Name
	if name == "" {
		name = testcov.ComparisonName("groups", req.Groups.Groups())
	}
	opts := app.ComputeOptions{MinGroupSize: s.minGroupSize(req.MinGroupSize), Workers: s.config.Workers}
	if req.Workers > 0 {
		opts.Workers = req.Workers
	}

	run, err := s.pipeline.RunComparison(c.Request.Context(), req.Matrix, testcov.Comparison{
		Name:       name,
		Groups:     req.Groups.Groups(),
		Assignment: req.Groups,
	}, opts)
	if err != nil {
		s.abortError(c, err)
		return
	}
	c.JSON(http.StatusCreated, run)
}

func (s *Server) handleListRuns(c *gin.Context) {
	limit := defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.abortError(c, apperrors.InvalidInput("limit must be a positive integer"))
			return
		}
		limit = min(n, maxListLimit)
	}

	runs, err := s.runs.ListRuns(c.Request.Context(), limit)
	if err != nil {
		s.abortError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs, "count": len(runs)})
}

func (s *Server) handleGetRun(c *gin.Context) {
	id, err := core.ParseRunID(c.Param("id"))
	if err != nil {
		s.abortError(c, apperrors.InvalidInput(err.Error()))
		return
	}
	run, err := s.runs.GetRun(c.Request.Context(), id)
	if err != nil {
		s.abortError(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

func (s *Server) minGroupSize(requested *int) int {
	if requested != nil {
		return *requested
	}
	return s.config.MinGroupSize
}

func (s *Server) abortBind(c *gin.Context, err error) {
	code := apperrors.GetCode(err)
	if code == apperrors.CodeInternalError {
		code = apperrors.CodeInvalidInput
	}
	body := errorBody(err)
	body.Code = code
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": body})
}

func (s *Server) abortError(c *gin.Context, err error) {
	status := statusFor(apperrors.GetCode(err))
	if status >= http.StatusInternalServerError {
		s.logger.Error("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": errorBody(err)})
}

func errorBody(err error) *ErrorBody {
	body := &ErrorBody{Code: apperrors.GetCode(err), Message: err.Error()}
	var elig *app.EligibilityError
	if errors.As(err, &elig) {
		body.NotInGroups = elig.NotInGroups
		body.NotInMatrix = elig.NotInMatrix
	}
	return body
}

// statusFor maps an error code to an HTTP status
func statusFor(code string) int {
	switch code {
	case apperrors.CodeValidationError, apperrors.CodeInvalidInput:
		return http.StatusBadRequest
	case apperrors.CodeNotFound:
		return http.StatusNotFound
	case apperrors.CodeInputMismatch, apperrors.CodeInsufficientGroups, apperrors.CodeBelowMinGroupSize:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
