package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MachineStatus is the operational state of a loom.
type MachineStatus string

const (
	MachineActive      MachineStatus = "Active"
	MachineInactive    MachineStatus = "Inactive"
	MachineMaintenance MachineStatus = "Maintenance"
	MachineBroken      MachineStatus = "Broken"
)

// Valid reports whether the value is one of the known statuses.
func (s MachineStatus) Valid() bool {
	switch s {
	case MachineActive, MachineInactive, MachineMaintenance, MachineBroken:
		return true
	}
	return false
}

// Machine is a loom. CurrentTaka points at the lot currently mounted on it
// and is cleared whenever that lot closes.
type Machine struct {
	ID               primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	MachineCode      string              `bson:"machineCode" json:"machineCode"`
	MachineName      string              `bson:"machineName" json:"machineName"`
	MachineType      string              `bson:"machineType,omitempty" json:"machineType,omitempty"`
	Status           MachineStatus       `bson:"status" json:"status"`
	InstallationDate *time.Time          `bson:"installationDate,omitempty" json:"installationDate,omitempty"`
	DayShiftWorker   *primitive.ObjectID `bson:"dayShiftWorker,omitempty" json:"dayShiftWorker,omitempty"`
	NightShiftWorker *primitive.ObjectID `bson:"nightShiftWorker,omitempty" json:"nightShiftWorker,omitempty"`
	CurrentTaka      *primitive.ObjectID `bson:"currentTaka,omitempty" json:"currentTaka,omitempty"`
	Location         string              `bson:"location,omitempty" json:"location,omitempty"`
	Notes            string              `bson:"notes,omitempty" json:"notes,omitempty"`
	IsActive         bool                `bson:"isActive" json:"isActive"`
	CreatedAt        time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// MachineRef is the reference shape embedded in populated responses.
type MachineRef struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	MachineCode string             `bson:"machineCode" json:"machineCode"`
	MachineName string             `bson:"machineName" json:"machineName"`
}

// Ref returns the reference shape for m.
func (m *Machine) Ref() MachineRef {
	return MachineRef{ID: m.ID, MachineCode: m.MachineCode, MachineName: m.MachineName}
}

// MachineFilter narrows machine listings. Search matches code or name,
// case-insensitively.
type MachineFilter struct {
	Status MachineStatus
	Search string
	SortBy string
	Order  string
}

// MachineDetail is a machine with today's production stats attached.
type MachineDetail struct {
	Machine
	TodayProduction  ProductionTotals `json:"todayProduction"`
	TotalProductions int64            `json:"totalProductions"`
}
