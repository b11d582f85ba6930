package engine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/thraizz/squeeze-server-go/internal/game/cards"
)

var (
	// ErrInvalidDeal is returned when a card appears in more than one hand.
	ErrInvalidDeal = errors.New("invalid deal")
	// ErrUnevenHands is returned when the four hands differ in length.
	ErrUnevenHands = errors.New("hands have different lengths")
	// ErrMissingThreats is returned when a threat-aware policy is configured without threat cards.
	ErrMissingThreats = errors.New("threat-aware policy requires threat cards")
	// ErrUnknownPolicy is returned for a policy kind the engine does not implement.
	ErrUnknownPolicy = errors.New("unknown policy")
	// ErrInvalidGoal is returned when the goal asks for more tricks than the deal holds.
	ErrInvalidGoal = errors.New("invalid goal")
)

// PolicyKind selects how a non-user seat chooses its cards.
type PolicyKind string

const (
	PolicyNone        PolicyKind = ""
	PolicyRandomLegal PolicyKind = "randomLegal"
	PolicyThreatAware PolicyKind = "threatAware"
)

func (k PolicyKind) valid() bool {
	return k == PolicyNone || k == PolicyRandomLegal || k == PolicyThreatAware
}

// Goal is met when Side takes at least MinTricks tricks.
type Goal struct {
	Side      cards.Side `yaml:"side" json:"side"`
	MinTricks int        `yaml:"minTricks" json:"minTricks"`
}

// Met reports whether the score satisfies the goal.
func (g Goal) Met(score Score) bool { return score.Of(g.Side) >= g.MinTricks }

func (g Goal) String() string { return fmt.Sprintf("%s>=%d", g.Side, g.MinTricks) }

// Problem is a fixed deal together with everything needed to play it.
type Problem struct {
	ID        string
	Strain    cards.Strain
	Leader    cards.Seat
	UserSeats []cards.Seat
	Goal      Goal
	Hands     cards.Deal
	Policies  map[cards.Seat]PolicyKind
	// Threats are the declared threat cards, at most one per suit.
	Threats           []cards.Card
	PreferredDiscards map[cards.Seat][]cards.Card
	Seed              uint32
	// UserLine is an optional scripted sequence of user cards, used by headless drivers.
	UserLine []cards.Card
}

// Validate checks the deal and policy configuration. Threat cards are
// checked against the deal by the threat classifier during Init.
func (p Problem) Validate() error {
	if dups := p.Hands.Duplicates(); len(dups) > 0 {
		return fmt.Errorf("%w: %v held twice", ErrInvalidDeal, dups)
	}
	size := p.Hands[cards.North].Len()
	for _, seat := range cards.Seats {
		if n := p.Hands[seat].Len(); n != size {
			return fmt.Errorf("%w: %s holds %d cards, %s holds %d", ErrUnevenHands, seat, n, cards.North, size)
		}
	}
	if p.Goal.MinTricks < 0 || p.Goal.MinTricks > size {
		return fmt.Errorf("%w: %s with %d tricks to play", ErrInvalidGoal, p.Goal, size)
	}
	threatAware := false
	for seat, kind := range p.Policies {
		if !kind.valid() {
			return fmt.Errorf("%w: %q for %s", ErrUnknownPolicy, kind, seat)
		}
		threatAware = threatAware || kind == PolicyThreatAware
	}
	if threatAware && len(p.Threats) == 0 {
		return fmt.Errorf("%w: problem %s", ErrMissingThreats, p.ID)
	}
	return nil
}

// IsUserSeat reports whether seat is played by the user.
func (p Problem) IsUserSeat(seat cards.Seat) bool { return slices.Contains(p.UserSeats, seat) }

// cardList decodes either a single card id or a sequence of them.
type cardList []cards.Card

func (l *cardList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var c cards.Card
		if err := node.Decode(&c); err != nil {
			return err
		}
		*l = cardList{c}
		return nil
	}
	var list []cards.Card
	if err := node.Decode(&list); err != nil {
		return err
	}
	*l = list
	return nil
}

// problemFile is the on-disk layout of a problem.
type problemFile struct {
	ID                string                                      `yaml:"id"`
	Strain            cards.Strain                                `yaml:"strain"`
	Leader            cards.Seat                                  `yaml:"leader"`
	UserSeats         []cards.Seat                                `yaml:"userSeats"`
	Goal              Goal                                        `yaml:"goal"`
	Hands             map[cards.Seat]map[cards.Suit]cards.RankSet `yaml:"hands"`
	Policies          map[cards.Seat]PolicyKind                   `yaml:"policies"`
	Threats           []cards.Card                                `yaml:"threats"`
	PreferredDiscards map[cards.Seat]cardList                     `yaml:"preferredDiscards"`
	Seed              uint32                                      `yaml:"seed"`
	UserLine          []cards.Card                                `yaml:"userLine"`
}

// UnmarshalYAML decodes a problem file, e.g.
//
//	id: p001
//	strain: NT
//	leader: S
//	userSeats: [N, S]
//	goal: {side: NS, minTricks: 3}
//	hands:
//	  N: {S: A8, H: "8"}
//	policies: {E: threatAware, W: threatAware}
//	threats: [H8, S8]
//	seed: 101
func (p *Problem) UnmarshalYAML(node *yaml.Node) error {
	var f problemFile
	if err := node.Decode(&f); err != nil {
		return err
	}
	out := Problem{
		ID:        f.ID,
		Strain:    f.Strain,
		Leader:    f.Leader,
		UserSeats: f.UserSeats,
		Goal:      f.Goal,
		Policies:  f.Policies,
		Threats:   f.Threats,
		Seed:      f.Seed,
		UserLine:  f.UserLine,
	}
	for seat, suits := range f.Hands {
		for suit, ranks := range suits {
			out.Hands[seat][suit] = ranks
		}
	}
	if len(f.PreferredDiscards) > 0 {
		out.PreferredDiscards = make(map[cards.Seat][]cards.Card, len(f.PreferredDiscards))
		for seat, list := range f.PreferredDiscards {
			out.PreferredDiscards[seat] = list
		}
	}
	*p = out
	return nil
}

// ParseProblem decodes and validates a problem from YAML.
func ParseProblem(data []byte) (Problem, error) {
	var p Problem
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Problem{}, fmt.Errorf("failed to decode problem: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Problem{}, err
	}
	return p, nil
}

// LoadProblem reads a problem file.
func LoadProblem(path string) (Problem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Problem{}, fmt.Errorf("failed to read problem: %w", err)
	}
	p, err := ParseProblem(data)
	if err != nil {
		return Problem{}, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// LoadProblems reads every *.yaml and *.yml file in dir, sorted by problem id.
func LoadProblems(dir string) ([]Problem, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read problem directory: %w", err)
	}
	var out []Problem
	for _, entry := range entries {
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		p, err := LoadProblem(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b Problem) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}
