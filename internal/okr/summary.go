package okr

import "strings"

const lastUpdatePrefix = "Última atualização:"

// LastUpdated returns the "last update" stamp kept in row 2, column H of a
// team tab, without its label. It returns "" when the cell is absent.
func LastUpdated(table Table) string {
	if len(table) < 2 || len(table[1]) < 8 {
		return ""
	}
	v := table[1][7]
	if strings.HasPrefix(v, lastUpdatePrefix) {
		v = strings.TrimSpace(strings.TrimPrefix(v, lastUpdatePrefix))
	}
	return v
}

// ObjectiveGroup is the set of records sharing one objective label.
type ObjectiveGroup struct {
	Number    int               `json:"number"` // 1-based, see GroupByObjective; 0 without objective
	Objective *string           `json:"objective"`
	Records   []KeyResultRecord `json:"records"`
}

// GroupByObjective groups records by objective label in order of first
// appearance. Records without an objective are collected in a trailing group
// numbered 0. They can only come before the first objective row, and they
// take number 1 when present, so the first labelled objective is then 2.
func GroupByObjective(records []KeyResultRecord) []ObjectiveGroup {
	var (
		groups     []ObjectiveGroup
		index      = make(map[string]int)
		unassigned []KeyResultRecord
		first      = 1
	)
	for _, r := range records {
		if r.Objective == nil {
			first = 2
			break
		}
	}
	for _, r := range records {
		if r.Objective == nil {
			unassigned = append(unassigned, r)
			continue
		}
		i, ok := index[*r.Objective]
		if !ok {
			i = len(groups)
			index[*r.Objective] = i
			groups = append(groups, ObjectiveGroup{Number: i + first, Objective: r.Objective})
		}
		groups[i].Records = append(groups[i].Records, r)
	}
	if len(unassigned) > 0 {
		groups = append(groups, ObjectiveGroup{Records: unassigned})
	}
	return groups
}

// ObjectiveProgress is the mean progress of an objective's readable records.
type ObjectiveProgress struct {
	Number    int      `json:"number"`
	Objective string   `json:"objective"`
	Progress  float64  `json:"progress"`
	Severity  Severity `json:"severity"`
	Counted   int      `json:"counted"`
}

// Summary is the progress roll-up of one team.
type Summary struct {
	Objectives []ObjectiveProgress `json:"objectives"`
	Progress   float64             `json:"progress"`
	Severity   Severity            `json:"severity"`
}

// Summarize averages record ratios per objective and objective averages per
// team. Records that fail View and the group without objective are left out;
// an objective with no readable record does not count toward the team.
func Summarize(groups []ObjectiveGroup) Summary {
	var (
		sum    Summary
		totals []float64
	)
	for _, g := range groups {
		if g.Objective == nil {
			continue
		}
		var ratios []float64
		for _, r := range g.Records {
			v, err := View(r)
			if err != nil {
				continue
			}
			ratios = append(ratios, v.Ratio)
		}
		if len(ratios) == 0 {
			continue
		}
		p := Mean(ratios)
		n := len(ratios)
		sum.Objectives = append(sum.Objectives, ObjectiveProgress{
			Number:    g.Number,
			Objective: *g.Objective,
			Progress:  p,
			Severity:  Bucket(p),
			Counted:   n,
		})
		totals = append(totals, p)
	}
	sum.Progress = Mean(totals)
	sum.Severity = Bucket(sum.Progress)
	return sum
}

// Mean returns the running mean of vs, or 0 for none. It stays finite for
// any finite inputs.
func Mean(vs []float64) float64 {
	m := 0.0
	for i, v := range vs {
		m += (v - m) / float64(i+1)
	}
	return m
}
