package recorder

import "OilTycoon/internal/model"

// NoopRecorder is used when no history database is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordPurchase(_ *model.PurchaseEvent) error     { return nil }
func (n *NoopRecorder) RecordCatchUp(_ *model.CatchUpEvent) error       { return nil }
func (n *NoopRecorder) RecordRetirement(_ *model.RetirementEvent) error { return nil }
func (n *NoopRecorder) RecordSnapshot(_ *model.EconomySnapshot) error   { return nil }
func (n *NoopRecorder) Close() error                                    { return nil }

func (n *NoopRecorder) RecentRetirements(_ int) ([]model.RetirementEvent, error) { return nil, nil }
func (n *NoopRecorder) RecentPurchases(_ int) ([]model.PurchaseEvent, error)     { return nil, nil }
