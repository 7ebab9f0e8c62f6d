package analytics

import (
	"fmt"

	"github.com/dukerupert/trolley/internal/model"
)

// Period is an inclusive date range.
type Period struct {
	Start model.Date `json:"start"`
	End   model.Date `json:"end"`
}

// LastDays returns the n-day period ending on end.
func LastDays(end model.Date, n int) Period {
	return Period{Start: end.AddDays(-(n - 1)), End: end}
}

// Days is the number of calendar days covered.
func (p Period) Days() int {
	return int(p.End.Sub(p.Start.Time).Hours()/24) + 1
}

// Previous returns the period of equal length ending the day before p starts.
func (p Period) Previous() Period {
	end := p.Start.AddDays(-1)
	return Period{Start: end.AddDays(-(p.Days() - 1)), End: end}
}

func (p Period) Contains(d model.Date) bool {
	return d.Between(p.Start, p.End)
}

func (p Period) Overlaps(o Period) bool {
	return !p.End.Before(o.Start.Time) && !o.End.Before(p.Start.Time)
}

func (p Period) Validate() error {
	if p.Start.IsZero() || p.End.IsZero() {
		return fmt.Errorf("period needs both start and end")
	}
	if p.End.Before(p.Start.Time) {
		return fmt.Errorf("period end %s before start %s", p.End, p.Start)
	}
	return nil
}

func (p Period) String() string {
	return p.Start.String() + ":" + p.End.String()
}

// ParsePeriod parses "YYYY-MM-DD:YYYY-MM-DD".
func ParsePeriod(s string) (Period, error) {
	if len(s) != 2*len(model.DateLayout)+1 || s[len(model.DateLayout)] != ':' {
		return Period{}, fmt.Errorf("period %q: want START:END", s)
	}
	start, err := model.ParseDate(s[:len(model.DateLayout)])
	if err != nil {
		return Period{}, err
	}
	end, err := model.ParseDate(s[len(model.DateLayout)+1:])
	if err != nil {
		return Period{}, err
	}
	p := Period{Start: start, End: end}
	return p, p.Validate()
}

// FilterReceipts returns the receipts purchased within p.
func FilterReceipts(receipts []model.Receipt, p Period) []model.Receipt {
	var out []model.Receipt
	for _, r := range receipts {
		if p.Contains(r.PurchaseDate) {
			out = append(out, r)
		}
	}
	return out
}
