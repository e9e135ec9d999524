package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LotStatus is the lifecycle state of a taka. Completed and Cancelled are
// terminal; nothing moves a taka out of them.
type LotStatus string

const (
	LotActive    LotStatus = "Active"
	LotCompleted LotStatus = "Completed"
	LotCancelled LotStatus = "Cancelled"
)

var lotTransitions = map[LotStatus][]LotStatus{
	LotActive: {LotCompleted, LotCancelled},
}

// Valid reports whether the value is one of the known statuses.
func (s LotStatus) Valid() bool {
	switch s {
	case LotActive, LotCompleted, LotCancelled:
		return true
	}
	return false
}

// Terminal reports whether the status admits no further transitions.
func (s LotStatus) Terminal() bool {
	return len(lotTransitions[s]) == 0 && s.Valid()
}

// CanTransitionTo reports whether the transition s -> next is allowed.
func (s LotStatus) CanTransitionTo(next LotStatus) bool {
	for _, allowed := range lotTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Taka is a production lot: a run of one quality grade on one machine,
// tracked until it reaches its target length. TotalMeters and TotalEarnings
// are maintained exclusively by the ledger as entries are recorded against
// the lot.
type Taka struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TakaNumber    string             `bson:"takaNumber" json:"takaNumber"`
	Machine       primitive.ObjectID `bson:"machine" json:"machine"`
	QualityGrade  primitive.ObjectID `bson:"qualityType" json:"qualityType"`
	TotalMeters   float64            `bson:"totalMeters" json:"totalMeters"`
	TargetMeters  float64            `bson:"targetMeters" json:"targetMeters"`
	Status        LotStatus          `bson:"status" json:"status"`
	StartDate     time.Time          `bson:"startDate" json:"startDate"`
	EndDate       *time.Time         `bson:"endDate,omitempty" json:"endDate,omitempty"`
	RatePerMeter  float64            `bson:"ratePerMeter" json:"ratePerMeter"`
	TotalEarnings float64            `bson:"totalEarnings" json:"totalEarnings"`
	Notes         string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// TakaRef is the reference shape embedded in populated responses.
type TakaRef struct {
	ID         primitive.ObjectID `bson:"_id" json:"id"`
	TakaNumber string             `bson:"takaNumber" json:"takaNumber"`
	Status     LotStatus          `bson:"status,omitempty" json:"status,omitempty"`
}

// Ref returns the reference shape for t.
func (t *Taka) Ref() TakaRef {
	return TakaRef{ID: t.ID, TakaNumber: t.TakaNumber, Status: t.Status}
}

// TakaFilter narrows taka listings.
type TakaFilter struct {
	Status    LotStatus
	MachineID *primitive.ObjectID
	QualityID *primitive.ObjectID
	SortBy    string
	Order     string
}

// TakaDetail is a taka with its references populated and per-lot production
// stats attached, matching the list endpoint response shape.
type TakaDetail struct {
	Taka
	MachineRef      *MachineRef      `json:"machineRef,omitempty"`
	QualityRef      *QualityRef      `json:"qualityRef,omitempty"`
	ProductionCount int64            `json:"productionCount"`
	ProductionStats ProductionTotals `json:"productionStats"`
}
