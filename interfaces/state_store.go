package interfaces

// StateStore is the durable set of already-handled message identifiers.
type StateStore interface {
	IsProcessed(id string) bool
	MarkProcessed(id string)
	ProcessedIDs() []string
	Clear()
}
