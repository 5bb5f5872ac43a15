package stravastats

import (
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"
)

const unknownType = "Unknown"

func typeOf(rec *Record) string {
	if rec.Type == nil || *rec.Type == "" {
		return unknownType
	}
	return *rec.Type
}

// Summarize aggregates records per activity type in order of first appearance
func Summarize(records []*Record) []*TypeSummary {
	var res []*TypeSummary
	idx := make(map[string]*TypeSummary)
	hr := make(map[string]int)
	for _, rec := range records {
		typ := typeOf(rec)
		sum, ok := idx[typ]
		if !ok {
			sum = &TypeSummary{Type: typ}
			idx[typ] = sum
			res = append(res, sum)
		}
		sum.Count++
		sum.TotalDistanceKm += rec.DistanceKm
		if rec.Calories != nil {
			sum.TotalCalories += *rec.Calories
		}
		if rec.TotalElevationGainM != nil {
			sum.TotalElevationM += *rec.TotalElevationGainM
		}
		if rec.AverageHeartrate != nil {
			// running mean over the records reporting heart rate
			hr[typ]++
			sum.AverageHeartrate += (*rec.AverageHeartrate - sum.AverageHeartrate) / float64(hr[typ])
		}
	}
	return res
}

// PrintStats writes the number of activities, the total distance and the number of activities per type
func PrintStats(w io.Writer, records []*Record) {
	var total float64
	for _, rec := range records {
		total += rec.DistanceKm
	}
	summaries := Summarize(records)
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].Count > summaries[j].Count
	})

	bold := color.New(color.Bold)
	value := color.New(color.FgGreen)
	bold.Fprintln(w, "Statistics")
	fmt.Fprint(w, "Activities: ")
	value.Fprintf(w, "%d\n", len(records))
	fmt.Fprint(w, "Total distance: ")
	value.Fprintf(w, "%.2f km\n", total)
	if len(summaries) == 0 {
		return
	}
	bold.Fprintln(w, "Activities by type")
	for _, sum := range summaries {
		fmt.Fprintf(w, "  %-16s", sum.Type)
		value.Fprintf(w, "%d\n", sum.Count)
	}
}
