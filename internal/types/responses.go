package types

// ListFilters narrows a list query. Zero values mean "no filter". Filter
// precedence when folding into the storage prefix is status, then trader,
// then hyperdrive.
type ListFilters struct {
	Status     OrderStatus
	Trader     string
	Hyperdrive string
}

// ListResult is one page of a list query.
type ListResult struct {
	Records               []OrderRecord `json:"records"`
	HasMore               bool          `json:"hasMore"`
	NextContinuationToken string        `json:"nextContinuationToken,omitempty"`
}

// MatchRequest is the body of the internal match trigger: a stored pending
// key plus a freshly signed counter-intent.
type MatchRequest struct {
	PendingKey string      `json:"pendingKey"`
	Intent     OrderIntent `json:"intent"`
}

// MatchResponse reports a completed settlement.
type MatchResponse struct {
	TxHash string      `json:"txHash"`
	Record OrderRecord `json:"record"`
}

// CancelRequest is the body of DELETE /orders and the internal cancel route.
type CancelRequest struct {
	Key string `json:"key"`
}
