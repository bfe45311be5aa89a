package domain

import (
	"fmt"
	"time"
)

// Team is a membership's assignment once a room has been divided.
type Team string

const (
	TeamNone Team = "none"
	TeamA    Team = "team_a"
	TeamB    Team = "team_b"
)

// Label is one token from the closed vocabulary a membership may carry.
type Label string

const (
	LabelGod    Label = "god"
	LabelSister Label = "sister"
	LabelMale   Label = "male"
	LabelBoss   Label = "boss"
)

// Vocabulary is the closed set of labels the core understands.
var Vocabulary = []Label{LabelGod, LabelSister, LabelMale, LabelBoss}

// Valid reports whether l is one of Vocabulary.
func (l Label) Valid() bool {
	for _, v := range Vocabulary {
		if v == l {
			return true
		}
	}
	return false
}

// Rule is the partitioning policy attached to a Label.
type Rule string

const (
	RuleNone     Rule = "none"
	RuleEven     Rule = "even"
	RuleSameTeam Rule = "same_team"
)

// Valid reports whether r is one of the three recognized rules.
func (r Rule) Valid() bool {
	switch r {
	case RuleNone, RuleEven, RuleSameTeam:
		return true
	}
	return false
}

// LabelRules maps each label to its partitioning rule. An absent entry
// defaults to RuleNone.
type LabelRules map[Label]Rule

// RuleFor returns the rule for l, defaulting to RuleNone when absent.
func (r LabelRules) RuleFor(l Label) Rule {
	if rule, ok := r[l]; ok {
		return rule
	}
	return RuleNone
}

// Validate enforces invariant 7: at most one label may be same_team.
func (r LabelRules) Validate() error {
	sameTeamCount := 0
	for label, rule := range r {
		if !label.Valid() {
			return fmt.Errorf("unknown label %q", label)
		}
		if !rule.Valid() {
			return fmt.Errorf("unknown rule %q for label %q", rule, label)
		}
		if rule == RuleSameTeam {
			sameTeamCount++
		}
	}
	if sameTeamCount > 1 {
		return fmt.Errorf("at most one label may have rule same_team, found %d", sameTeamCount)
	}
	return nil
}

// SameTeamLabel returns the single label with rule same_team, if any.
func (r LabelRules) SameTeamLabel() (Label, bool) {
	for label, rule := range r {
		if rule == RuleSameTeam {
			return label, true
		}
	}
	return "", false
}

// EvenLabels returns every label whose rule is even.
func (r LabelRules) EvenLabels() []Label {
	var labels []Label
	for label, rule := range r {
		if rule == RuleEven {
			labels = append(labels, label)
		}
	}
	return labels
}

// Membership is the pair (room, user), unique per room.
type Membership struct {
	ID       string    `gorm:"primaryKey;size:36"`
	RoomID   string    `gorm:"uniqueIndex:idx_membership_room_user,priority:1;size:36;not null"`
	UserID   string    `gorm:"uniqueIndex:idx_membership_room_user,priority:2;size:36;not null"`
	Team     Team      `gorm:"size:16;not null"`
	Labels   []Label   `gorm:"serializer:json"`
	JoinedAt time.Time
}

// HasLabel reports whether the membership carries l.
func (m Membership) HasLabel(l Label) bool {
	for _, have := range m.Labels {
		if have == l {
			return true
		}
	}
	return false
}
