package registry

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/loomworks/loomledger/internal/domain/errs"
	"github.com/loomworks/loomledger/internal/domain/models"
)

// QualityCreateRequest is the payload for defining a quality grade.
type QualityCreateRequest struct {
	Name         string   `json:"name" binding:"required"`
	Description  string   `json:"description"`
	RatePerMeter *float64 `json:"ratePerMeter" binding:"required"`
}

// QualityUpdateRequest carries the mutable grade fields; nil members are
// left untouched. Rate changes only affect future takas and entries.
type QualityUpdateRequest struct {
	Name         *string  `json:"name"`
	Description  *string  `json:"description"`
	RatePerMeter *float64 `json:"ratePerMeter"`
}

// CreateQuality defines a grade. Names are unique among live grades.
func (s *Service) CreateQuality(ctx context.Context, req QualityCreateRequest) (*models.QualityGrade, error) {
	if *req.RatePerMeter < 0 {
		return nil, errs.Validation("rate per meter cannot be negative")
	}

	if _, err := s.qualities.FindByName(ctx, req.Name); err == nil {
		return nil, errs.Conflict("quality grade %s already exists", req.Name)
	} else if !errs.IsNotFound(err) {
		return nil, err
	}

	q := &models.QualityGrade{
		Name:         req.Name,
		Description:  req.Description,
		RatePerMeter: *req.RatePerMeter,
		IsActive:     true,
	}

	if err := s.qualities.Insert(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// UpdateQuality mutates a grade.
func (s *Service) UpdateQuality(ctx context.Context, id primitive.ObjectID, req QualityUpdateRequest) (*models.QualityGrade, error) {
	q, err := s.qualities.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil && *req.Name != q.Name {
		if existing, err := s.qualities.FindByName(ctx, *req.Name); err == nil && existing.ID != id {
			return nil, errs.Conflict("quality grade %s already exists", *req.Name)
		} else if err != nil && !errs.IsNotFound(err) {
			return nil, err
		}
		q.Name = *req.Name
	}
	if req.Description != nil {
		q.Description = *req.Description
	}
	if req.RatePerMeter != nil {
		if *req.RatePerMeter < 0 {
			return nil, errs.Validation("rate per meter cannot be negative")
		}
		q.RatePerMeter = *req.RatePerMeter
	}

	if err := s.qualities.Update(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// GetQuality fetches one grade.
func (s *Service) GetQuality(ctx context.Context, id primitive.ObjectID) (*models.QualityGrade, error) {
	return s.qualities.FindByID(ctx, id)
}

// ListQualities returns live grades with today's and this month's
// production attached.
func (s *Service) ListQualities(ctx context.Context, f models.QualityFilter) ([]models.QualityDetail, error) {
	grades, err := s.qualities.List(ctx, f)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	details := make([]models.QualityDetail, 0, len(grades))
	for _, q := range grades {
		qualityID := q.ID
		today, err := s.entries.Totals(ctx, models.ProductionFilter{From: &todayStart, QualityID: &qualityID})
		if err != nil {
			return nil, err
		}
		month, err := s.entries.Totals(ctx, models.ProductionFilter{From: &monthStart, QualityID: &qualityID})
		if err != nil {
			return nil, err
		}
		details = append(details, models.QualityDetail{
			QualityGrade:    q,
			TodayProduction: today,
			MonthProduction: month,
		})
	}
	return details, nil
}

// DeleteQuality soft-deletes a grade. Grades still referenced by production
// entries cannot be removed.
func (s *Service) DeleteQuality(ctx context.Context, id primitive.ObjectID) error {
	referenced, err := s.entries.ExistsForQuality(ctx, id)
	if err != nil {
		return err
	}
	if referenced {
		return errs.Conflict("quality grade is referenced by production records")
	}
	return s.qualities.SoftDelete(ctx, id)
}
