package recorder

import "OilTycoon/internal/model"

// Recorder persists the economy journal for later analysis.
type Recorder interface {
	RecordPurchase(evt *model.PurchaseEvent) error
	RecordCatchUp(evt *model.CatchUpEvent) error
	RecordRetirement(evt *model.RetirementEvent) error
	RecordSnapshot(snap *model.EconomySnapshot) error
	RecentRetirements(limit int) ([]model.RetirementEvent, error)
	RecentPurchases(limit int) ([]model.PurchaseEvent, error)
	Close() error
}
