package domain

import "sort"

// Summary aggregates the event store for the dashboard.
type Summary struct {
	Total  int
	Events map[string]int
	Guilds map[int64]int

	// MostFrequentGuild is only meaningful when HasMostFrequent is set.
	MostFrequentGuild int64
	HasMostFrequent   bool
}

// NewSummary folds per-(type, guild) counts into totals. Ties for the most
// active guild go to the lowest guild id.
func NewSummary(counts []EventCount) Summary {
	s := Summary{
		Events: make(map[string]int),
		Guilds: make(map[int64]int),
	}

	for _, c := range counts {
		if c.Count <= 0 {
			continue
		}
		s.Total += c.Count
		s.Events[c.EventType] += c.Count
		s.Guilds[c.GuildID] += c.Count
	}

	best := 0
	for id, n := range s.Guilds {
		if n > best || (n == best && id < s.MostFrequentGuild) {
			best = n
			s.MostFrequentGuild = id
			s.HasMostFrequent = true
		}
	}

	return s
}

// EventShare is one row of the per-type breakdown.
type EventShare struct {
	EventType string
	Count     int
	Percent   float64
}

// Shares returns the per-type breakdown ordered by count, then name.
func (s Summary) Shares() []EventShare {
	shares := make([]EventShare, 0, len(s.Events))
	for ty, n := range s.Events {
		share := EventShare{EventType: ty, Count: n}
		if s.Total > 0 {
			share.Percent = float64(n) / float64(s.Total) * 100
		}
		shares = append(shares, share)
	}

	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Count != shares[j].Count {
			return shares[i].Count > shares[j].Count
		}
		return shares[i].EventType < shares[j].EventType
	})

	return shares
}
