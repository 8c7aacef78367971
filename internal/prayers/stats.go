package prayers

// Stats summarizes a reconciled window.
type Stats struct {
	Days      int            `json:"days"`
	Completed map[string]int `json:"completed"`
	FullDays  int            `json:"full_days"`
	Streak    int            `json:"streak"`
	Rate      float64        `json:"completion_rate"`
}

func full(card DayCard) bool {
	if len(card.Items) == 0 {
		return false
	}
	for _, it := range card.Items {
		if !it.Done {
			return false
		}
	}
	return true
}

// Summarize counts completions per item over h. Streak is the run of fully
// completed days ending today; an incomplete today does not break it, the
// run is then counted from yesterday.
func Summarize(set Set, h History) Stats {
	st := Stats{Days: len(h.Days), Completed: make(map[string]int, set.Len())}
	for _, name := range set.names {
		st.Completed[name] = 0
	}

	done := 0
	for _, card := range h.Days {
		for _, it := range card.Items {
			if it.Done {
				st.Completed[it.Name]++
				done++
			}
		}
		if full(card) {
			st.FullDays++
		}
	}
	if total := len(h.Days) * set.Len(); total > 0 {
		st.Rate = float64(done) / float64(total)
	}

	for i, card := range h.Days {
		if !full(card) {
			if i == 0 {
				continue
			}
			break
		}
		st.Streak++
	}
	return st
}
