package revocation

// Stats is the statistics-counter collaborator the Service reports
// activity to. It is a thin sink interface only: aggregation, export
// and any telemetry backend live entirely outside this package's
// scope.
type Stats interface {
	// IncAccepted counts one newly accepted and persisted record.
	IncAccepted()
	// IncDuplicate counts one valid record whose key was already
	// revoked; it is reported as accepted but not re-persisted or
	// re-flooded.
	IncDuplicate()
	// IncRejected counts one record rejected by validation, tagged
	// with the reason (the error returned by pow.Check).
	IncRejected(reason error)
	// IncReconciliationFailure counts one failed set-union attempt
	// with a peer.
	IncReconciliationFailure()
	// IncUnsupportedElement counts one set-reconciliation element
	// seen with an unrecognized type tag.
	IncUnsupportedElement()
}

// NopStats is a Stats implementation that discards every count, used
// when the embedding application hasn't wired a telemetry sink.
type NopStats struct{}

func (NopStats) IncAccepted()              {}
func (NopStats) IncDuplicate()             {}
func (NopStats) IncRejected(error)         {}
func (NopStats) IncReconciliationFailure() {}
func (NopStats) IncUnsupportedElement()    {}
