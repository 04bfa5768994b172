package syncing

import (
	"sort"
	"time"

	"github.com/vfg2006/metrics-sync-api/pkg/utils"
)

// DateSet é um conjunto de dias, indexado pelo formato YYYY-MM-DD para
// permitir testes de pertinência diretos contra datas vindas das APIs
type DateSet map[string]struct{}

func NewDateSet() DateSet {
	return make(DateSet)
}

func (s DateSet) Add(t time.Time) {
	s[utils.TruncateToDay(t).Format(time.DateOnly)] = struct{}{}
}

// AddRange inclui todos os dias do intervalo fechado [since, until]
func (s DateSet) AddRange(since, until time.Time) {
	since = utils.TruncateToDay(since)
	until = utils.TruncateToDay(until)

	for d := since; !d.After(until); d = d.AddDate(0, 0, 1) {
		s.Add(d)
	}
}

func (s DateSet) Has(t time.Time) bool {
	_, ok := s[utils.TruncateToDay(t).Format(time.DateOnly)]
	return ok
}

// HasString testa pertinência de uma data já no formato YYYY-MM-DD
func (s DateSet) HasString(date string) bool {
	_, ok := s[date]
	return ok
}

func (s DateSet) Union(other DateSet) {
	for date := range other {
		s[date] = struct{}{}
	}
}

func (s DateSet) Len() int {
	return len(s)
}

// Sorted devolve os dias do conjunto em ordem crescente
func (s DateSet) Sorted() []time.Time {
	keys := make([]string, 0, len(s))
	for date := range s {
		keys = append(keys, date)
	}
	sort.Strings(keys)

	dates := make([]time.Time, 0, len(keys))
	for _, key := range keys {
		date, err := time.Parse(time.DateOnly, key)
		if err != nil {
			continue
		}
		dates = append(dates, date)
	}

	return dates
}
