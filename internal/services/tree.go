package services

import (
	"family-tree-backend/internal/models"
)

// maxGenerationDepth bounds the parent-chain walk. A member that is its
// own ancestor through a data-entry error must never loop forever; anything
// deeper than this is pinned to generation 0.
const maxGenerationDepth = 20

// TreeUnit is a single member or a spouse pair co-displayed at one
// generation level, annotated with resolved parents and children.
type TreeUnit struct {
	Members  []*models.FamilyMember `json:"members"`
	Parents  []*models.FamilyMember `json:"parents"`
	Children []*models.FamilyMember `json:"children"`
}

// TreeGeneration groups the units of one generation.
type TreeGeneration struct {
	Generation int        `json:"generation"`
	Units      []TreeUnit `json:"units"`
}

// TreeService computes derived views of the family graph. It is a pure
// function of the member list: given the same input it always produces
// the same generations and grouping.
type TreeService struct{}

// NewTreeService creates a new tree service
func NewTreeService() *TreeService {
	return &TreeService{}
}

type genState int

const (
	genUnvisited genState = iota
	genInProgress
	genDone
)

// Generations assigns every member an integer depth from the nearest
// ancestor-free member. A member whose father and mother are both absent
// or unresolved is generation 0; otherwise it is one past the deeper
// resolved parent. Cycles are broken by visited-marking: re-entering a
// member that is still being computed contributes 0.
func (s *TreeService) Generations(members []*models.FamilyMember) map[string]int {
	byID := indexByID(members)
	gens := make(map[string]int, len(members))
	state := make(map[string]genState, len(members))

	var visit func(id string, depth int) int
	visit = func(id string, depth int) int {
		if depth > maxGenerationDepth {
			return 0
		}
		m, ok := byID[id]
		if !ok {
			return 0
		}
		switch state[id] {
		case genDone:
			return gens[id]
		case genInProgress:
			// Cycle: the offending node reads as 0 along this path.
			return gens[id]
		}
		state[id] = genInProgress

		g := 0
		hasParent := false
		if m.FatherID != nil {
			if _, ok := byID[*m.FatherID]; ok {
				hasParent = true
				if fg := visit(*m.FatherID, depth+1); fg+1 > g {
					g = fg + 1
				}
			}
		}
		if m.MotherID != nil {
			if _, ok := byID[*m.MotherID]; ok {
				hasParent = true
				if mg := visit(*m.MotherID, depth+1); mg+1 > g {
					g = mg + 1
				}
			}
		}
		if !hasParent {
			g = 0
		}

		gens[id] = g
		state[id] = genDone
		return g
	}

	for _, m := range members {
		visit(m.ID, 0)
	}
	return gens
}

// Build produces the renderable tree: generations in ascending order, each
// holding units grouped in input order. A member already placed as someone's
// spouse is skipped; a spouse only joins a unit when it sits in the same
// generation. Children of a unit are all members whose fatherId or motherId
// matches any id in the unit; parents are the resolved father and mother of
// the unit's first member.
func (s *TreeService) Build(members []*models.FamilyMember) []TreeGeneration {
	byID := indexByID(members)
	gens := s.Generations(members)

	maxGen := 0
	for _, m := range members {
		if gens[m.ID] > maxGen {
			maxGen = gens[m.ID]
		}
	}

	var result []TreeGeneration
	for gen := 0; gen <= maxGen; gen++ {
		var inGen []*models.FamilyMember
		for _, m := range members {
			if gens[m.ID] == gen {
				inGen = append(inGen, m)
			}
		}
		if len(inGen) == 0 {
			continue
		}

		placed := make(map[string]bool, len(inGen))
		var units []TreeUnit
		for _, m := range inGen {
			if placed[m.ID] {
				continue
			}

			var spouse *models.FamilyMember
			if m.SpouseID != nil {
				for _, other := range inGen {
					if other.ID == *m.SpouseID {
						spouse = other
						break
					}
				}
			}

			unitMembers := []*models.FamilyMember{m}
			placed[m.ID] = true
			if spouse != nil {
				unitMembers = append(unitMembers, spouse)
				placed[spouse.ID] = true
			}

			var children []*models.FamilyMember
			for _, c := range members {
				for _, um := range unitMembers {
					if (c.FatherID != nil && *c.FatherID == um.ID) ||
						(c.MotherID != nil && *c.MotherID == um.ID) {
						children = append(children, c)
						break
					}
				}
			}

			var parents []*models.FamilyMember
			if m.FatherID != nil {
				if father, ok := byID[*m.FatherID]; ok {
					parents = append(parents, father)
				}
			}
			if m.MotherID != nil {
				if mother, ok := byID[*m.MotherID]; ok {
					parents = append(parents, mother)
				}
			}

			units = append(units, TreeUnit{
				Members:  unitMembers,
				Parents:  parents,
				Children: children,
			})
		}

		result = append(result, TreeGeneration{Generation: gen, Units: units})
	}
	return result
}

// Ancestors returns the transitive parents of a member in input order.
// Dangling parent ids are skipped; cyclic data terminates via the seen set.
func (s *TreeService) Ancestors(members []*models.FamilyMember, id string) []*models.FamilyMember {
	byID := indexByID(members)
	seen := map[string]bool{id: true}

	ancestors := make(map[string]bool)
	queue := []string{id}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		m, ok := byID[current]
		if !ok {
			continue
		}
		for _, pid := range []*string{m.FatherID, m.MotherID} {
			if pid == nil || seen[*pid] {
				continue
			}
			if _, ok := byID[*pid]; !ok {
				continue
			}
			seen[*pid] = true
			ancestors[*pid] = true
			queue = append(queue, *pid)
		}
	}

	return collectInOrder(members, ancestors)
}

// Descendants returns the transitive children of a member in input order.
func (s *TreeService) Descendants(members []*models.FamilyMember, id string) []*models.FamilyMember {
	seen := map[string]bool{id: true}

	descendants := make(map[string]bool)
	queue := []string{id}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, c := range members {
			isChild := (c.FatherID != nil && *c.FatherID == current) ||
				(c.MotherID != nil && *c.MotherID == current)
			if !isChild || seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			descendants[c.ID] = true
			queue = append(queue, c.ID)
		}
	}

	return collectInOrder(members, descendants)
}

func indexByID(members []*models.FamilyMember) map[string]*models.FamilyMember {
	byID := make(map[string]*models.FamilyMember, len(members))
	for _, m := range members {
		byID[m.ID] = m
	}
	return byID
}

func collectInOrder(members []*models.FamilyMember, ids map[string]bool) []*models.FamilyMember {
	var out []*models.FamilyMember
	for _, m := range members {
		if ids[m.ID] {
			out = append(out, m)
		}
	}
	return out
}
