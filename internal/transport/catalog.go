package transport

import (
	"fmt"
	"net/http"
	"strings"

	apperrors "go-skin-inspector/internal/errors"
	"go-skin-inspector/pkg/models"

	"github.com/gin-gonic/gin"
)

const maxSuggestions = 3

func (h *handler) listConditions(c *gin.Context) {
	conditions := h.catalog.All()
	if r := c.Query("risk"); r != "" {
		risk, err := models.ParseRisk(r)
		if err != nil {
			fail(c, apperrors.NewValidationError(err.Error(), err))
			return
		}
		conditions = h.catalog.FilterByRisk(risk)
	}
	c.JSON(http.StatusOK, conditionList(conditions, nil))
}

func (h *handler) searchConditions(c *gin.Context) {
	q := c.Query("q")
	found := h.catalog.Search(q)
	var suggestions []string
	if len(found) == 0 {
		suggestions = h.catalog.Suggest(q, maxSuggestions)
	}
	c.JSON(http.StatusOK, conditionList(found, suggestions))
}

func (h *handler) getCondition(c *gin.Context) {
	id := c.Param("id")
	cond, err := h.catalog.Get(id)
	if err != nil {
		if s := h.catalog.Suggest(id, maxSuggestions); len(s) > 0 {
			err = apperrors.NewNotFoundError(
				fmt.Sprintf("condition %q not found, did you mean %s?", id, strings.Join(s, ", ")), err)
		}
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cond)
}

func conditionList(conditions []models.Condition, suggestions []string) models.ConditionListResponse {
	if conditions == nil {
		conditions = []models.Condition{}
	}
	return models.ConditionListResponse{
		Conditions:  conditions,
		Count:       len(conditions),
		Suggestions: suggestions,
	}
}
