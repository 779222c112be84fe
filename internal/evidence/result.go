package evidence

import "time"

type Status string

const (
	StatusOK     Status = "ok"
	StatusEmpty  Status = "empty"
	StatusFailed Status = "failed"
)

// Result is the tagged outcome of one provider call.
type Result struct {
	Provider string
	Status   Status
	Item     *Item
	Err      error
	Duration time.Duration
}

func Ok(provider string, item Item) Result {
	return Result{Provider: provider, Status: StatusOK, Item: &item}
}

func Empty(provider string) Result {
	return Result{Provider: provider, Status: StatusEmpty}
}

func Err(provider string, err error) Result {
	return Result{Provider: provider, Status: StatusFailed, Err: err}
}

// Items returns the successful items in the order the results are given.
func Items(results []Result) []Item {
	items := make([]Item, 0, len(results))
	for _, r := range results {
		if r.Status == StatusOK && r.Item != nil {
			items = append(items, *r.Item)
		}
	}
	return items
}
