package catalog

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode"

	"github.com/xrash/smetrics"
	"golang.org/x/text/unicode/norm"

	"github.com/TechnicallyShaun/stitch-sync/internal/prompt"
)

// SuggestThreshold is the similarity a machine needs before it is offered
// as a "did you mean" candidate.
const SuggestThreshold = 0.8

// Jaro-Winkler tuning: the prefix bonus applies above boostThreshold and
// counts at most prefixSize leading characters.
const (
	boostThreshold = 0.7
	prefixSize     = 4
)

// Match is a machine paired with its similarity to a query.
type Match struct {
	Machine Machine
	Score   float64
}

// Normalize reduces a machine name to lowercase letters and digits.
// "Brother-PE800" and "brother pe 800" both become "brotherpe800".
func Normalize(name string) string {
	var sb strings.Builder
	for _, r := range norm.NFKD.String(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(unicode.ToLower(r))
		}
	}
	return sb.String()
}

// FindExact returns the machine whose name or synonym equals name after
// normalization.
func (c *Catalog) FindExact(name string) (Machine, bool) {
	want := Normalize(name)
	if want == "" {
		return Machine{}, false
	}
	for _, m := range c.machines {
		if Normalize(m.Name) == want {
			return m, true
		}
		for _, s := range m.Synonyms {
			if Normalize(s) == want {
				return m, true
			}
		}
	}
	return Machine{}, false
}

// FindSimilar scores every machine against name and returns those at or
// above threshold, best first. A machine's score is the best score of its
// name and synonyms.
func (c *Catalog) FindSimilar(name string, threshold float64) []Match {
	query := Normalize(name)
	if query == "" {
		return nil
	}

	var matches []Match
	for _, m := range c.machines {
		best := similarity(query, Normalize(m.Name))
		for _, s := range m.Synonyms {
			if score := similarity(query, Normalize(s)); score > best {
				best = score
			}
		}
		if best >= threshold {
			matches = append(matches, Match{Machine: m, Score: best})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Machine.Name < matches[j].Machine.Name
	})
	return matches
}

func similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	return smetrics.JaroWinkler(a, b, boostThreshold, prefixSize)
}

// InteractiveResolve looks name up exactly, then falls back to asking the
// user about similar machines. It returns false when nothing was chosen.
// This blocks on the prompter and must run before the watch loop starts.
func (c *Catalog) InteractiveResolve(name string, p prompt.Prompter, out io.Writer) (Machine, bool, error) {
	if m, ok := c.FindExact(name); ok {
		return m, true, nil
	}

	candidates := c.FindSimilar(name, SuggestThreshold)
	switch len(candidates) {
	case 0:
		return Machine{}, false, nil
	case 1:
		m := candidates[0].Machine
		ok, err := prompt.YesNo(p, fmt.Sprintf("Machine '%s' not found. Did you mean '%s'?", name, m.Name), true)
		if err != nil || !ok {
			return Machine{}, false, err
		}
		return m, true, nil
	default:
		fmt.Fprintf(out, "Machine '%s' not found. Did you mean one of these?\n", name)
		names := make([]string, len(candidates))
		for i, cand := range candidates {
			names[i] = cand.Machine.Name
		}
		idx, err := prompt.Choose(p, out, names)
		if errors.Is(err, prompt.ErrCancelled) {
			return Machine{}, false, nil
		}
		if err != nil {
			return Machine{}, false, err
		}
		return candidates[idx].Machine, true, nil
	}
}
