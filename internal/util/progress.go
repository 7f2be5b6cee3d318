package util

import "fmt"

// Progress is a snapshot of a multi step job. Current counts finished units of
// the current Step out of Total.
type Progress struct {
	Step    string `json:"step"`
	Current int    `json:"current"`
	Total   int    `json:"total"`
}

// Percentage returns 0..100. An empty job counts as done.
func (p Progress) Percentage() int32 {
	if p.Total <= 0 {
		return 100
	}
	current := min(max(p.Current, 0), p.Total)
	return int32(current * 100 / p.Total)
}

func (p Progress) String() string {
	return fmt.Sprintf("%s %d/%d", p.Step, p.Current, p.Total)
}
