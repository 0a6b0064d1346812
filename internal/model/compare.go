package model

// CompareQuery locates one Ours/PROD record pair.
type CompareQuery struct {
	Date   string
	Term   string
	Strike string
	Time   string
}

// CompareResult is the raw /api/prod_row payload. Fields missing from a
// side are missing from its map; JSON nulls are stored as Null values.
type CompareResult struct {
	Ours  map[string]Value
	Prod  map[string]Value
	Diffs []string
}
