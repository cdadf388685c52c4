package models

import "time"

type AuditStatus int32

const (
	AuditStatusPlanned AuditStatus = iota
	AuditStatusInProgress
	AuditStatusCompleted
	AuditStatusCancelled
)

var auditStatusNames = map[AuditStatus]string{
	AuditStatusPlanned:    "PLANNED",
	AuditStatusInProgress: "IN_PROGRESS",
	AuditStatusCompleted:  "COMPLETED",
	AuditStatusCancelled:  "CANCELLED",
}

func (s AuditStatus) String() string {
	if name, ok := auditStatusNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

func ParseAuditStatus(name string) (AuditStatus, bool) {
	for status, n := range auditStatusNames {
		if n == name {
			return status, true
		}
	}
	return 0, false
}

type AuditItemStatus int32

const (
	AuditItemStatusPending AuditItemStatus = iota
	AuditItemStatusCounted
	AuditItemStatusDiscrepancy
	AuditItemStatusReconciled
)

var auditItemStatusNames = map[AuditItemStatus]string{
	AuditItemStatusPending:     "PENDING",
	AuditItemStatusCounted:     "COUNTED",
	AuditItemStatusDiscrepancy: "DISCREPANCY",
	AuditItemStatusReconciled:  "RECONCILED",
}

func (s AuditItemStatus) String() string {
	if name, ok := auditItemStatusNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

func ParseAuditItemStatus(name string) (AuditItemStatus, bool) {
	for status, n := range auditItemStatusNames {
		if n == name {
			return status, true
		}
	}
	return 0, false
}

type Audit struct {
	ID          int64       `gorm:"primaryKey;autoIncrement"`
	AuditNumber string      `gorm:"size:100;uniqueIndex;not null"`
	WarehouseID int32       `gorm:"not null;index"`
	Status      AuditStatus `gorm:"not null;default:0"`
	StartDate   *time.Time
	EndDate     *time.Time
	Notes       *string `gorm:"type:text"`
	CreatedByID int64   `gorm:"not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Warehouse   *Warehouse        `gorm:"foreignKey:WarehouseID"`
	Items       []AuditItem       `gorm:"foreignKey:AuditID;constraint:OnDelete:CASCADE"`
	Assignments []AuditAssignment `gorm:"foreignKey:AuditID;constraint:OnDelete:CASCADE"`
}

type AuditItem struct {
	ID               int64           `gorm:"primaryKey;autoIncrement"`
	AuditID          int64           `gorm:"not null;index"`
	ProductID        int32           `gorm:"not null"`
	InventoryItemID  int64           `gorm:"not null;index"`
	ExpectedQuantity int32           `gorm:"not null"`
	CountedQuantity  *int32
	Discrepancy      *int32
	Status           AuditItemStatus `gorm:"not null;default:0;index"`
	Notes            *string         `gorm:"type:text"`
	CountedByID      *int64
	CountedAt        *time.Time
	Version          int32 `gorm:"not null;default:0"`
	Adjusted         bool  `gorm:"not null;default:false"`
	CreatedAt        time.Time
	UpdatedAt        time.Time

	Product       *InventoryProduct `gorm:"foreignKey:ProductID"`
	InventoryItem *InventoryItem    `gorm:"foreignKey:InventoryItemID"`
}

type AuditAssignment struct {
	ID        int64 `gorm:"primaryKey;autoIncrement"`
	AuditID   int64 `gorm:"not null;index"`
	UserID    int64 `gorm:"not null"`
	Zones     StringArray `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
