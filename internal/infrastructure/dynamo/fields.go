package dynamo

// DynamoDB attribute names used in update expressions.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldStatus     = "status"
	fieldCode       = "code"
	fieldResolvedAt = "resolved_at"
)
