package model

import "gorm.io/datatypes"

// MemoryRecordModel is the durable row behind one sliding-window entry.
// Price is stored as its decimal string so nothing is lost to float
// round-trips.
type MemoryRecordModel struct {
	ID            int64          `gorm:"column:id;primaryKey"`
	RecordID      string         `gorm:"column:record_id;uniqueIndex"`
	Kind          string         `gorm:"column:kind;index"`
	Provider      string         `gorm:"column:provider"`
	Service       string         `gorm:"column:service"`
	Price         string         `gorm:"column:price"`
	Summary       string         `gorm:"column:summary"`
	Payload       datatypes.JSON `gorm:"column:payload;type:TEXT"`
	CreatedAtUnix int64          `gorm:"column:created_at"`
}

func (MemoryRecordModel) TableName() string { return "memory_records" }

// HistoryEntryModel is one persisted aggregation output per category.
type HistoryEntryModel struct {
	ID            int64          `gorm:"column:id;primaryKey"`
	EntryID       string         `gorm:"column:entry_id;uniqueIndex"`
	Category      string         `gorm:"column:category;index"`
	Payload       datatypes.JSON `gorm:"column:payload;type:TEXT"`
	CreatedAtUnix int64          `gorm:"column:created_at"`
}

func (HistoryEntryModel) TableName() string { return "quote_history" }
