// Package attendance compares the names recognized in classroom photos with
// the expected roster of a section.
package attendance

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// DefaultUnknownLabel is what the recognition service calls faces it cannot match.
const DefaultUnknownLabel = "Unknown"

// Roster is the list of people expected in a section.
type Roster struct {
	Section  string   `yaml:"section"`
	Students []string `yaml:"students"`
}

// Report is the outcome of checking identified names against a roster.
type Report struct {
	Section      string
	Present      []string // roster spelling, roster order
	Absent       []string // roster spelling, roster order
	Unrecognized []string // identified names not on the roster, sorted
	UnknownFaces int      // faces the service labelled as unknown
}

// ParseRoster decodes a YAML roster.
func ParseRoster(data []byte) (*Roster, error) {
	var roster Roster
	if err := yaml.Unmarshal(data, &roster); err != nil {
		return nil, fmt.Errorf("could not parse roster: %w", err)
	}
	if len(roster.Students) == 0 {
		return nil, errors.New("roster has no students")
	}
	return &roster, nil
}

// LoadRoster reads and decodes a YAML roster file.
func LoadRoster(path string) (*Roster, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-provided roster path
	if err != nil {
		return nil, fmt.Errorf("could not read roster: %w", err)
	}
	return ParseRoster(data)
}

// Check builds an attendance report from the names identified across one or
// more photos. Matching ignores case, diacritics, and dash/space differences.
func (r *Roster) Check(identified []string, unknownLabel string) Report {
	if unknownLabel == "" {
		unknownLabel = DefaultUnknownLabel
	}
	unknown := NormalizeName(unknownLabel)

	seen := make(map[string]string, len(identified))
	report := Report{Section: r.Section, Present: []string{}, Absent: []string{}, Unrecognized: []string{}}
	for _, name := range identified {
		key := NormalizeName(name)
		if key == "" {
			continue
		}
		if key == unknown {
			report.UnknownFaces++
			continue
		}
		if _, ok := seen[key]; !ok {
			seen[key] = name
		}
	}

	onRoster := make(map[string]struct{}, len(r.Students))
	for _, student := range r.Students {
		key := NormalizeName(student)
		if _, dup := onRoster[key]; dup {
			continue
		}
		onRoster[key] = struct{}{}
		if _, ok := seen[key]; ok {
			report.Present = append(report.Present, student)
		} else {
			report.Absent = append(report.Absent, student)
		}
	}

	for key, name := range seen {
		if _, ok := onRoster[key]; !ok {
			report.Unrecognized = append(report.Unrecognized, name)
		}
	}
	sort.Strings(report.Unrecognized)

	return report
}
