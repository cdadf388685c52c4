package models

import "time"

type InventoryProduct struct {
	ID            int32  `gorm:"primaryKey"`
	ProductCode   string `gorm:"size:100;uniqueIndex"`
	ProductName   string `gorm:"size:255"`
	UnitOfMeasure string `gorm:"size:50"`
	ReorderLevel  int32
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Items []InventoryItem `gorm:"foreignKey:ProductID"`
}

type Warehouse struct {
	ID            int32   `gorm:"primaryKey"`
	WarehouseCode string  `gorm:"size:100;uniqueIndex"`
	WarehouseName string  `gorm:"size:255"`
	Location      *string `gorm:"size:255"`
	ManagerID     *int64
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Zones []Zone          `gorm:"foreignKey:WarehouseID"`
	Items []InventoryItem `gorm:"foreignKey:WarehouseID"`
}

// Zone > Aisle > Shelf > Bin is the physical location chain inside a
// warehouse. Audit items group by the zone at the top of the chain.
type Zone struct {
	ID          int32  `gorm:"primaryKey"`
	WarehouseID int32  `gorm:"not null;index"`
	ZoneCode    string `gorm:"size:50"`
	ZoneName    string `gorm:"size:255"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Aisles []Aisle `gorm:"foreignKey:ZoneID"`
}

type Aisle struct {
	ID        int32  `gorm:"primaryKey"`
	ZoneID    int32  `gorm:"not null;index"`
	AisleCode string `gorm:"size:50"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Zone    *Zone   `gorm:"foreignKey:ZoneID"`
	Shelves []Shelf `gorm:"foreignKey:AisleID"`
}

type Shelf struct {
	ID        int32  `gorm:"primaryKey"`
	AisleID   int32  `gorm:"not null;index"`
	ShelfCode string `gorm:"size:50"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Aisle *Aisle `gorm:"foreignKey:AisleID"`
	Bins  []Bin  `gorm:"foreignKey:ShelfID"`
}

type Bin struct {
	ID        int32  `gorm:"primaryKey"`
	ShelfID   int32  `gorm:"not null;index"`
	BinCode   string `gorm:"size:50"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Shelf *Shelf `gorm:"foreignKey:ShelfID"`
}

type InventoryItem struct {
	ID             int64 `gorm:"primaryKey"`
	ProductID      int32 `gorm:"not null;index"`
	WarehouseID    int32 `gorm:"not null;index"`
	BinID          *int32
	OnHandQuantity int32
	UnitCost       string `gorm:"size:50"`
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Product   *InventoryProduct `gorm:"foreignKey:ProductID"`
	Warehouse *Warehouse        `gorm:"foreignKey:WarehouseID"`
	Bin       *Bin              `gorm:"foreignKey:BinID"`
}

type MovementType int32

const (
	MovementTypeUnspecified MovementType = iota
	MovementTypeIn
	MovementTypeOut
	MovementTypeAdjustment
)

type ReferenceType int32

const (
	ReferenceTypeUnspecified ReferenceType = iota
	ReferenceTypeSale
	ReferenceTypePurchase
	ReferenceTypeAudit
)

type StockMovement struct {
	ID              int64        `gorm:"primaryKey"`
	InventoryItemID int64        `gorm:"not null;index"`
	ProductID       int32        `gorm:"not null"`
	WarehouseID     int32        `gorm:"not null"`
	MovementType    MovementType `gorm:"not null"`
	Quantity        int32        `gorm:"not null"`
	ReferenceType   ReferenceType
	ReferenceID     *string `gorm:"size:100"`
	Notes           *string `gorm:"size:255"`
	CreatedBy       int64
	CreatedAt       time.Time
}
