package models

// FactRecord is the structured business knowledge distilled from a discovery
// conversation. All fields are optional; empty string means unknown.
//
// Fields fill monotonically: once set, a field is only replaced by a later
// extraction pass that produced a non-empty value for it.
type FactRecord struct {
	Name           string `json:"name,omitempty"`
	Project        string `json:"project,omitempty"`
	Audience       string `json:"target_audience,omitempty"`
	Problem        string `json:"core_problem,omitempty"`
	DesiredOutcome string `json:"desired_outcome,omitempty"`
	Timeline       string `json:"timeline,omitempty"`
	Budget         string `json:"budget,omitempty"`
	Industry       string `json:"industry,omitempty"`
	BusinessStage  string `json:"business_stage,omitempty"`
	FounderType    string `json:"founder_type,omitempty"`
}

// Field is a named fact-record field, used when facts are persisted or
// reported field by field.
type Field struct {
	Name  string
	Value string
}

// Fields lists the record's fields in a stable order.
func (prior FactRecord) Fields() []Field {
	return []Field{
		{"name", prior.Name},
		{"project", prior.Project},
		{"audience", prior.Audience},
		{"problem", prior.Problem},
		{"desired_outcome", prior.DesiredOutcome},
		{"timeline", prior.Timeline},
		{"budget", prior.Budget},
		{"industry", prior.Industry},
		{"business_stage", prior.BusinessStage},
		{"founder_type", prior.FounderType},
	}
}

// SetField sets the named field. Unknown names are ignored.
func (prior *FactRecord) SetField(name, value string) {
	switch name {
	case "name":
		prior.Name = value
	case "project":
		prior.Project = value
	case "audience":
		prior.Audience = value
	case "problem":
		prior.Problem = value
	case "desired_outcome":
		prior.DesiredOutcome = value
	case "timeline":
		prior.Timeline = value
	case "budget":
		prior.Budget = value
	case "industry":
		prior.Industry = value
	case "business_stage":
		prior.BusinessStage = value
	case "founder_type":
		prior.FounderType = value
	}
}

// Merge overlays update on top of prior without losing prior knowledge.
// An empty update field never clears a filled prior field.
func (prior FactRecord) Merge(update FactRecord) FactRecord {
	merged := prior
	for _, field := range []struct {
		dst *string
		src string
	}{
		{&merged.Name, update.Name},
		{&merged.Project, update.Project},
		{&merged.Audience, update.Audience},
		{&merged.Problem, update.Problem},
		{&merged.DesiredOutcome, update.DesiredOutcome},
		{&merged.Timeline, update.Timeline},
		{&merged.Budget, update.Budget},
		{&merged.Industry, update.Industry},
		{&merged.BusinessStage, update.BusinessStage},
		{&merged.FounderType, update.FounderType},
	} {
		if field.src != "" {
			*field.dst = field.src
		}
	}
	return merged
}
