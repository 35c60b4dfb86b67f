package repository

import (
	"github.com/tapolio/tapolio-server/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InterviewResultRepository interface {
	Create(result *model.InterviewResult) error
	FindBySessionID(sessionID string) (*model.InterviewResult, error)
}

type interviewResultRepository struct {
	db *gorm.DB
}

func NewInterviewResultRepository(db *gorm.DB) InterviewResultRepository {
	return &interviewResultRepository{db: db}
}

// Create ignores a second archive of the same session.
func (r *interviewResultRepository) Create(result *model.InterviewResult) error {
	return r.db.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "session_id"}}, DoNothing: true}).
		Create(result).Error
}

func (r *interviewResultRepository) FindBySessionID(sessionID string) (*model.InterviewResult, error) {
	var result model.InterviewResult
	if err := r.db.Where("session_id = ?", sessionID).First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}
