package ledger

// CategoryTotal is one slice of the pie chart: a category label and the sum
// of every entry carrying it.
type CategoryTotal struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
}

// AggregateByCategory groups entries by category and sums their amounts.
// Categories appear in the output in order of first appearance in the input.
// Pure function: no I/O, safe to recompute on every render.
func AggregateByCategory(entries []Entry) []CategoryTotal {
	totals := make([]CategoryTotal, 0, len(entries))
	index := make(map[string]int, len(entries))

	for _, e := range entries {
		i, ok := index[e.Category]

		if !ok {
			index[e.Category] = len(totals)
			totals = append(totals, CategoryTotal{Category: e.Category, Total: e.Amount})
			continue
		}

		totals[i].Total += e.Amount
	}

	return totals
}
