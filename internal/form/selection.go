package form

import "slices"

// Toggle applies one checkbox change to a selection and returns the new one.
// Checking a sentinel leaves only that sentinel. Checking any other tag drops
// the sentinels. Unchecking removes the tag.
func Toggle(g Group, selection []string, tag string, checked bool) []string {
	if !checked {
		out := make([]string, 0, len(selection))
		for _, t := range selection {
			if t != tag {
				out = append(out, t)
			}
		}
		return out
	}

	if IsSentinel(g, tag) {
		return []string{tag}
	}

	out := make([]string, 0, len(selection)+1)
	for _, t := range selection {
		if IsSentinel(g, t) {
			continue
		}
		out = append(out, t)
	}
	if !slices.Contains(out, tag) {
		out = append(out, tag)
	}
	return out
}

// ToggleAnswers is Toggle applied to the record, clearing the companion text
// once "other" is no longer selected.
func ToggleAnswers(a Answers, g Group, tag string, checked bool) Answers {
	tags := Toggle(g, a.Selection(g), tag, checked)
	a.setSelection(g, tags)
	if !slices.Contains(tags, TagOther) {
		a.setOtherDescription(g, "")
	}
	return a
}

// WithOtherDescription returns a with the free text for g replaced.
func WithOtherDescription(a Answers, g Group, text string) Answers {
	a.setOtherDescription(g, text)
	return a
}
