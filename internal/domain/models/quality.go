package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// QualityGrade is a named fabric grade with its per-meter rate. The rate is
// snapshotted into takas and production entries at creation time; changing
// it here never retroactively touches existing records.
type QualityGrade struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Description  string             `bson:"description,omitempty" json:"description,omitempty"`
	RatePerMeter float64            `bson:"ratePerMeter" json:"ratePerMeter"`
	IsActive     bool               `bson:"isActive" json:"isActive"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// QualityRef is the reference shape embedded in populated responses.
type QualityRef struct {
	ID           primitive.ObjectID `bson:"_id" json:"id"`
	Name         string             `bson:"name" json:"name"`
	RatePerMeter float64            `bson:"ratePerMeter" json:"ratePerMeter"`
}

// Ref returns the reference shape for q.
func (q *QualityGrade) Ref() QualityRef {
	return QualityRef{ID: q.ID, Name: q.Name, RatePerMeter: q.RatePerMeter}
}

// QualityFilter narrows quality grade listings.
type QualityFilter struct {
	Search string
	SortBy string
	Order  string
}

// QualityDetail is a grade with today's and this month's production stats.
type QualityDetail struct {
	QualityGrade
	TodayProduction ProductionTotals `json:"todayProduction"`
	MonthProduction ProductionTotals `json:"monthProduction"`
}
