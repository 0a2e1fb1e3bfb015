package models

// BriefSection is one named section of a strategic brief.
type BriefSection struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Brief is the terminal artifact of a discovery session: a personalized
// opening message followed by an ordered sequence of named sections.
// It is created exactly once per session and immutable thereafter.
type Brief struct {
	Opening  string         `json:"opening"`
	Sections []BriefSection `json:"sections"`
}

// Empty reports whether the brief carries no content at all.
func (b Brief) Empty() bool {
	return b.Opening == "" && len(b.Sections) == 0
}
