package domain

// PositionProvider supplies the current portfolio positions for an owner.
// Implementations live outside the engine (database, broker API); the engine
// only consumes the interface.
type PositionProvider interface {
	GetPositions(ownerKey string) ([]Position, error)
}

// OwnerProvider lists the owners whose portfolios should be swept by
// background risk evaluation.
type OwnerProvider interface {
	ActiveOwners() ([]string, error)
}

// ReturnsProvider supplies historical periodic return series.
type ReturnsProvider interface {
	// GetReturns returns up to limit chronological fractional returns for an
	// asset, most recent last. An empty asset ID means the whole portfolio.
	GetReturns(ownerKey, assetID string, limit int) ([]float64, error)
}
