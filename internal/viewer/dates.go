package viewer

// DateCatalog is the list of report dates. A failed load leaves it empty and
// disabled with the error recorded; there is no automatic retry.
type DateCatalog struct {
	Dates    []string `json:"dates"`
	Loaded   bool     `json:"loaded"`
	Disabled bool     `json:"disabled"`
	Error    string   `json:"error,omitempty"`
}

// Contains reports whether date is a known report date.
func (d DateCatalog) Contains(date string) bool {
	for _, x := range d.Dates {
		if x == date {
			return true
		}
	}
	return false
}

func catalogLoaded(dates []string) DateCatalog {
	return DateCatalog{
		Dates:    append([]string(nil), dates...),
		Loaded:   true,
		Disabled: len(dates) == 0,
	}
}

func catalogFailed(err error) DateCatalog {
	return DateCatalog{Loaded: true, Disabled: true, Error: err.Error()}
}
