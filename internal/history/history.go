package history

import (
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Payment is one classified submission outcome, kept so the merchant
// dashboard can show what happened to an invoice over time.
type Payment struct {
	ID         uint   `gorm:"primaryKey"`
	InvoiceID  string `gorm:"index"`
	PaymentID  string
	Status     string
	Asset      string
	AmountSats int64
	TxID       string
	CreatedAt  time.Time
}

type Log struct {
	database *gorm.DB
}

func Open(path string) *Log {
	orm, err := gorm.Open(sqlite.Open(path), &gorm.Config{DisableForeignKeyConstraintWhenMigrating: true, FullSaveAssociations: true})
	if err != nil {
		panic("Initialize orm failed.")
	}
	err = orm.AutoMigrate(&Payment{})
	if err != nil {
		panic(err)
	}
	return &Log{database: orm}
}

func (l *Log) Record(p *Payment) error {
	return l.database.Create(p).Error
}

func (l *Log) ByInvoice(invoiceId string) ([]Payment, error) {
	var payments []Payment
	tx := l.database.Where("invoice_id = ?", invoiceId).Order("created_at desc").Find(&payments)
	return payments, tx.Error
}

func (l *Log) Recent(limit int) ([]Payment, error) {
	var payments []Payment
	tx := l.database.Order("created_at desc").Limit(limit).Find(&payments)
	return payments, tx.Error
}
