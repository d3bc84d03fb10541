package daystatus

import (
	"cloud.google.com/go/civil"

	"habitTrackerAPI/internal/validation"
	"habitTrackerAPI/utils"
)

// MaxDelta bounds a single adjust call.
const MaxDelta = 100

// Payload is the wire shape of a day-status request. Exactly one of
// Completed and Delta must be set.
type Payload struct {
	Date      string `json:"date" validate:"required,ymd"`
	Completed *bool  `json:"completed,omitempty"`
	Delta     *int   `json:"delta,omitempty" validate:"omitempty,ne=0,min=-100,max=100"`
}

// Request is either a Toggle or an Adjust.
type Request interface {
	Date() civil.Date
	Mode() string
	isRequest()
}

// Toggle sets a day to completed or clears it.
type Toggle struct {
	Day       civil.Date
	Completed bool
}

// Adjust adds or removes Delta entries on a multi-entry day.
type Adjust struct {
	Day   civil.Date
	Delta int
}

func (t Toggle) Date() civil.Date { return t.Day }
func (t Toggle) Mode() string     { return "toggle" }
func (Toggle) isRequest()         {}

func (a Adjust) Date() civil.Date { return a.Day }
func (a Adjust) Mode() string     { return "adjust" }
func (Adjust) isRequest()         {}

// Decode validates the payload and returns the request it describes.
func (p Payload) Decode() (Request, error) {
	if err := validation.Struct(p); err != nil {
		return nil, err
	}

	switch {
	case p.Completed != nil && p.Delta != nil:
		return nil, validation.Errorf("completed and delta are mutually exclusive")
	case p.Completed == nil && p.Delta == nil:
		return nil, validation.Errorf("one of completed or delta is required")
	}

	day, err := utils.ParseDate(p.Date)
	if err != nil {
		return nil, validation.Errorf("%v", err)
	}

	if p.Completed != nil {
		return Toggle{Day: day, Completed: *p.Completed}, nil
	}
	return Adjust{Day: day, Delta: *p.Delta}, nil
}
