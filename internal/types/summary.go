package types

// Summary field keys, in header grammar order.
const (
	FieldTotalPnL   = "total_pnl"
	FieldWinrate    = "winrate"
	FieldTotalDeals = "total_deals"
	FieldSuccessful = "successful"
	FieldLosing     = "losing"
	FieldBreakeven  = "breakeven"
	FieldInProgress = "in_progress"
	FieldStartDate  = "start_date"
	FieldLastUpdate = "last_update"
)

// SummaryRecord is the summary header block of a ledger document.
// Every value is kept as the literal (trimmed) text from the header,
// so percentages keep their "%" sign and dates keep their original layout.
// A record is either fully populated or the zero value.
type SummaryRecord struct {
	TotalPnL   string `yaml:"total_pnl" json:"total_pnl"`
	Winrate    string `yaml:"winrate" json:"winrate"`
	TotalDeals string `yaml:"total_deals" json:"total_deals"`
	Successful string `yaml:"successful" json:"successful"`
	Losing     string `yaml:"losing" json:"losing"`
	Breakeven  string `yaml:"breakeven" json:"breakeven"`
	InProgress string `yaml:"in_progress" json:"in_progress"`
	StartDate  string `yaml:"start_date" json:"start_date"`
	LastUpdate string `yaml:"last_update" json:"last_update"`
}

// SummaryField is a single key/value pair of a summary record.
type SummaryField struct {
	Key   string
	Value string
}

// IsEmpty reports whether the record is the zero value (header did not parse).
func (s SummaryRecord) IsEmpty() bool {
	return s == SummaryRecord{}
}

// Fields returns the nine fields in header grammar order.
func (s SummaryRecord) Fields() []SummaryField {
	return []SummaryField{
		{Key: FieldTotalPnL, Value: s.TotalPnL},
		{Key: FieldWinrate, Value: s.Winrate},
		{Key: FieldTotalDeals, Value: s.TotalDeals},
		{Key: FieldSuccessful, Value: s.Successful},
		{Key: FieldLosing, Value: s.Losing},
		{Key: FieldBreakeven, Value: s.Breakeven},
		{Key: FieldInProgress, Value: s.InProgress},
		{Key: FieldStartDate, Value: s.StartDate},
		{Key: FieldLastUpdate, Value: s.LastUpdate},
	}
}

// Get returns the value stored under key, and false for unknown keys.
func (s SummaryRecord) Get(key string) (string, bool) {
	for _, f := range s.Fields() {
		if f.Key == key {
			return f.Value, true
		}
	}

	return "", false
}
