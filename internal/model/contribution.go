package model

// Contribution is one donation event as stored in the contributions table.
type Contribution struct {
	ID            int64   `json:"id"`
	FirstName     string  `json:"first_name"`
	LastName      string  `json:"last_name"`
	City          string  `json:"city"`
	State         string  `json:"state"`
	ZipCode       string  `json:"zip_code"`
	Date          string  `json:"contribution_date"`
	RecipientID   string  `json:"recipient_id"`
	RecipientName string  `json:"recipient_name"` // committee name, falls back to RecipientID
	RecipientType string  `json:"recipient_type"`
	Amount        float64 `json:"amount"`
}

// RawContribution is a contribution row as read by the percentile builder.
// Date and Amount are left as stored text so that malformed rows can be
// counted instead of failing the scan.
type RawContribution struct {
	FirstName string
	LastName  string
	ZipCode   string
	Date      string
	Amount    string
}

// Committee resolves a recipient identifier to a display name.
type Committee struct {
	ID   string `json:"committee_id"`
	Name string `json:"name"`
	Type string `json:"committee_type"`
}

// ContributorTotal is one contributor's aggregate giving to a single recipient.
type ContributorTotal struct {
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Total     float64 `json:"total"`
	Count     int64   `json:"count"`
}

// CommitteeTypeLabel maps an FEC committee type code to a display category.
func CommitteeTypeLabel(code string) string {
	switch code {
	case "H", "S", "P":
		return "Candidate"
	case "X", "Y":
		return "Party Committee"
	default:
		return "PAC"
	}
}

// Conduits identifies passthrough platforms (ActBlue, WinRed, ...) whose
// contributions are forwarded elsewhere and therefore hidden from search.
// FEC data names them by committee id, CalAccess data by committee name.
type Conduits struct {
	IDs   []string `json:"ids,omitempty"`
	Names []string `json:"names,omitempty"`
}

// Empty reports whether no conduit is configured.
func (c Conduits) Empty() bool {
	return len(c.IDs) == 0 && len(c.Names) == 0
}

// Contains reports whether a committee, by id or by name, is a conduit.
func (c Conduits) Contains(committeeID string, committeeName string) bool {
	for _, id := range c.IDs {
		if id == committeeID {
			return true
		}
	}
	for _, n := range c.Names {
		if committeeName != "" && n == committeeName {
			return true
		}
	}
	return false
}
