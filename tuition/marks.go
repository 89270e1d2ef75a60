package tuition

import "github.com/warp/tuition-engine/calendar"

// Mark is one dot drawn on a calendar day.
type Mark struct {
	TuitionID string `json:"tuition_id"`
	Color     string `json:"color"`
	IsGlowing bool   `json:"is_glowing"`
}

// ComputeMarks returns the calendar marks for every attended day.
//
// With no focus every tuition contributes a plain mark. With a focus only
// the focused tuition contributes, and its marks glow. Marks for a day are
// ordered as the tuitions are in list.
func ComputeMarks(list []Tuition, focusID *string) map[calendar.DayKey][]Mark {
	marks := make(map[calendar.DayKey][]Mark)
	for _, t := range list {
		if focusID != nil && *focusID != t.ID {
			continue
		}
		glowing := focusID != nil
		for k, v := range t.CompletedDates {
			if !v {
				continue
			}
			marks[k] = append(marks[k], Mark{TuitionID: t.ID, Color: t.Color, IsGlowing: glowing})
		}
	}
	return marks
}
