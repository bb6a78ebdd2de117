package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/sherlock-service/sherlock_service/internal/domain/entities"
	"github.com/sherlock-service/sherlock_service/internal/domain/services/decision"
	apperrors "github.com/sherlock-service/sherlock_service/pkg/errors"
	"github.com/sherlock-service/sherlock_service/pkg/logger"
)

// ScoreHandler handles transaction risk decisions
type ScoreHandler struct {
	pipeline *decision.Pipeline
	logger   *logger.Logger
}

// NewScoreHandler creates a new score handler
func NewScoreHandler(pipeline *decision.Pipeline, logger *logger.Logger) *ScoreHandler {
	return &ScoreHandler{
		pipeline: pipeline,
		logger:   logger,
	}
}

// Score decides one transaction. Resubmitting a transaction id returns the
// original verdict without re-counting.
func (h *ScoreHandler) Score(c *gin.Context) {
	var req entities.TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", validationDetails(err))
		return
	}
	req.Normalize()

	result, err := h.pipeline.Decide(c.Request.Context(), &req)
	if err != nil {
		h.logger.WithError(err).Errorw("Decision pipeline failed",
			"transaction_id", req.TransactionID,
			"user_id", req.UserID,
			"error_code", string(apperrors.Code(err)),
			"request_id", getRequestID(c),
		)
		respondInternalError(c, "Unable to decide transaction")
		return
	}

	c.JSON(http.StatusOK, result)
}

// validationDetails maps binding errors to field-level messages
func validationDetails(err error) map[string]interface{} {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]interface{}{"error": err.Error()}
	}

	details := make(map[string]interface{}, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required", "min":
			details[fe.Field()] = "field is required"
		case "gt":
			details[fe.Field()] = "must be greater than 0"
		default:
			details[fe.Field()] = "failed validation: " + fe.Tag()
		}
	}
	return details
}
