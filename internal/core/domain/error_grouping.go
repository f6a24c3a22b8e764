package domain

import "sort"

// GroupFieldErrors maps field-level errors into logical sections ordered by
// the fixed section priority, attaching field labels and remediation
// suggestions. Fields without a section mapping land in "Other", last.
func GroupFieldErrors(errors []FieldError) []ErrorGroup {
	if len(errors) == 0 {
		return nil
	}

	bySection := make(map[string][]GroupedError)
	for _, fieldErr := range errors {
		section, ok := FieldSection[fieldErr.Field]
		if !ok {
			section = SectionOther
		}
		grouped := GroupedError{
			FieldError: fieldErr,
			FieldLabel: fieldErr.Field,
			Suggestion: Suggestions[fieldErr.Code],
		}
		if label, ok := FieldLabel[fieldErr.Field]; ok {
			grouped.FieldLabel = label
		}
		bySection[section] = append(bySection[section], grouped)
	}

	groups := make([]ErrorGroup, 0, len(bySection))
	for section, grouped := range bySection {
		priority, ok := SectionPriority[section]
		if !ok {
			priority = SectionPriority[SectionOther] + 1
		}
		groups = append(groups, ErrorGroup{Section: section, Priority: priority, Errors: grouped})
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Priority < groups[j].Priority
	})
	return groups
}
