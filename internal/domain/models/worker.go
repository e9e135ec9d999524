package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkerType distinguishes payroll treatment.
type WorkerType string

const (
	WorkerPermanent WorkerType = "Permanent"
	WorkerTemporary WorkerType = "Temporary"
)

// Valid reports whether the value is one of the known types.
func (t WorkerType) Valid() bool {
	return t == WorkerPermanent || t == WorkerTemporary
}

// WorkerShift is the shift a worker is generally available for. It is
// informational; the authoritative machine assignment lives on the machine.
type WorkerShift string

const (
	WorkerShiftDay   WorkerShift = "Day"
	WorkerShiftNight WorkerShift = "Night"
	WorkerShiftBoth  WorkerShift = "Both"
	WorkerShiftNone  WorkerShift = "None"
)

// Valid reports whether the value is one of the known shifts.
func (s WorkerShift) Valid() bool {
	switch s {
	case WorkerShiftDay, WorkerShiftNight, WorkerShiftBoth, WorkerShiftNone:
		return true
	}
	return false
}

// EmergencyContact holds a worker's emergency contact details.
type EmergencyContact struct {
	Name     string `bson:"name,omitempty" json:"name,omitempty"`
	Phone    string `bson:"phone,omitempty" json:"phone,omitempty"`
	Relation string `bson:"relation,omitempty" json:"relation,omitempty"`
}

// Worker is a weaver or helper employed at the unit.
type Worker struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkerCode       string             `bson:"workerCode" json:"workerCode"`
	Name             string             `bson:"name" json:"name"`
	WorkerType       WorkerType         `bson:"workerType" json:"workerType"`
	Phone            string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Address          string             `bson:"address,omitempty" json:"address,omitempty"`
	JoiningDate      time.Time          `bson:"joiningDate" json:"joiningDate"`
	Shift            WorkerShift        `bson:"shift" json:"shift"`
	EmergencyContact *EmergencyContact  `bson:"emergencyContact,omitempty" json:"emergencyContact,omitempty"`
	IsActive         bool               `bson:"isActive" json:"isActive"`
	Notes            string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// WorkerRef is the reference shape embedded in populated responses.
type WorkerRef struct {
	ID         primitive.ObjectID `bson:"_id" json:"id"`
	WorkerCode string             `bson:"workerCode" json:"workerCode"`
	Name       string             `bson:"name" json:"name"`
	WorkerType WorkerType         `bson:"workerType,omitempty" json:"workerType,omitempty"`
}

// Ref returns the reference shape for w.
func (w *Worker) Ref() WorkerRef {
	return WorkerRef{ID: w.ID, WorkerCode: w.WorkerCode, Name: w.Name, WorkerType: w.WorkerType}
}

// WorkerFilter narrows worker listings. Search matches code, name or phone,
// case-insensitively.
type WorkerFilter struct {
	WorkerType WorkerType
	Shift      WorkerShift
	Search     string
	SortBy     string
	Order      string
}

// WorkerDetail is a worker with today's and this month's production stats.
type WorkerDetail struct {
	Worker
	TodayProduction  ProductionTotals `json:"todayProduction"`
	MonthProduction  ProductionTotals `json:"monthProduction"`
	TotalProductions int64            `json:"totalProductions"`
}
