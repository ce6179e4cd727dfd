package crm

// Raw wire shapes for the GoHighLevel API. Custom fields arrive as untyped
// id/value pairs; the parser is the only place allowed to interpret them.

// RawCustomField is one custom field entry on an opportunity or contact.
type RawCustomField struct {
	ID    string      `json:"id"`
	Key   string      `json:"fieldKey,omitempty"`
	Value interface{} `json:"fieldValue"`
}

// RawContact mirrors the relevant parts of a GHL contact payload.
type RawContact struct {
	ID           string           `json:"id"`
	Name         string           `json:"contactName"`
	Email        string           `json:"email"`
	Phone        string           `json:"phone"`
	CustomFields []RawCustomField `json:"customFields"`
}

// RawOpportunity mirrors the relevant parts of a GHL opportunity payload.
type RawOpportunity struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	PipelineID    string           `json:"pipelineId"`
	StageID       string           `json:"pipelineStageId"`
	ContactID     string           `json:"contactId"`
	Status        string           `json:"status"`
	LastActivity  string           `json:"lastStatusChangeAt"`
	UpdatedAt     string           `json:"updatedAt"`
	CustomFields  []RawCustomField `json:"customFields"`
	RelationID    string           `json:"relationId,omitempty"`
	RelationLabel string           `json:"relationLabel,omitempty"`
}

// RawOpportunityList is the paged list envelope.
type RawOpportunityList struct {
	Opportunities []RawOpportunity `json:"opportunities"`
	Meta          struct {
		Total      int    `json:"total"`
		NextPage   int    `json:"nextPage"`
		StartAfter string `json:"startAfterId"`
	} `json:"meta"`
}

// RawContactList is the paged contact list envelope.
type RawContactList struct {
	Contacts []RawContact `json:"contacts"`
	Meta     struct {
		Total      int    `json:"total"`
		StartAfter string `json:"startAfterId"`
	} `json:"meta"`
}

// RawAssociation is the relation record as returned by the associations API.
type RawAssociation struct {
	ID string `json:"id"`
}
