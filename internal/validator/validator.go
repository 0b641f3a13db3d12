// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"time"

	"bankroll/internal/history"
	"bankroll/internal/models"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("ymd_date", validateYMDDate)
		_ = v.RegisterValidation("history_category", validateHistoryCategory)
		_ = v.RegisterValidation("history_sort_key", validateHistorySortKey)
		_ = v.RegisterValidation("sort_dir", validateSortDir)
	}
}

func validateYMDDate(fl validator.FieldLevel) bool {
	_, err := time.Parse(models.DateLayout, fl.Field().String())
	return err == nil
}

func validateHistoryCategory(fl validator.FieldLevel) bool {
	return models.ChangeCategory(fl.Field().String()).Valid()
}

func validateHistorySortKey(fl validator.FieldLevel) bool {
	return history.SortKey(fl.Field().String()).Valid()
}

func validateSortDir(fl validator.FieldLevel) bool {
	switch history.SortDir(fl.Field().String()) {
	case history.Asc, history.Desc:
		return true
	}
	return false
}
