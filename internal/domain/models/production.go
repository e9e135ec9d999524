package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Shift is the half of the 24-hour cycle a production entry belongs to.
type Shift string

const (
	ShiftDay   Shift = "Day"
	ShiftNight Shift = "Night"
)

// Valid reports whether the value is one of the known shifts.
func (s Shift) Valid() bool {
	return s == ShiftDay || s == ShiftNight
}

// Production is a single dated production record against a taka. Earnings is
// always MetersProduced × RatePerMeter; it is computed when the entry is
// written and never edited independently.
type Production struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Date           time.Time          `bson:"date" json:"date"`
	Machine        primitive.ObjectID `bson:"machine" json:"machine"`
	Worker         primitive.ObjectID `bson:"worker" json:"worker"`
	Taka           primitive.ObjectID `bson:"taka" json:"taka"`
	QualityGrade   primitive.ObjectID `bson:"qualityType" json:"qualityType"`
	Shift          Shift              `bson:"shift" json:"shift"`
	MetersProduced float64            `bson:"metersProduced" json:"metersProduced"`
	RatePerMeter   float64            `bson:"ratePerMeter" json:"ratePerMeter"`
	Earnings       float64            `bson:"earnings" json:"earnings"`
	Notes          string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ProductionDetail is a production entry with its references populated.
type ProductionDetail struct {
	Production
	MachineRef MachineRef `json:"machineRef"`
	WorkerRef  WorkerRef  `json:"workerRef"`
	TakaRef    TakaRef    `json:"takaRef"`
	QualityRef QualityRef `json:"qualityRef"`
}

// ProductionFilter narrows production queries. Nil/zero members are ignored.
type ProductionFilter struct {
	From      *time.Time
	To        *time.Time
	Shift     Shift
	MachineID *primitive.ObjectID
	WorkerID  *primitive.ObjectID
	TakaID    *primitive.ObjectID
	QualityID *primitive.ObjectID
	SortBy    string
	Order     string
	Limit     int64
}
