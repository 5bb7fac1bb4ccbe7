package domain

// DatasetListResult captures paginated dataset list results.
type DatasetListResult struct {
	Items []Dataset
	Total int64
}
