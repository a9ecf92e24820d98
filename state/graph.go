package state

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// ParseGraph reads a static topology for a network of n nodes. Nodes are referred to by their
// decimal id. Each line is either a group definition or a pairing:
//
//	sinks = 0, 1
//	field = 2, 3, sinks
//	field, field
//	4, sinks
//
// A pairing links every member of each listed symbol to every member of each other listed
// symbol, so "field, field" makes field a full mesh. Groups may reference other groups.
// Empty lines and lines starting with # are ignored.
func ParseGraph(graph []string, n int) ([]Pair[NodeId, NodeId], error) {
	p := &graphParser{
		n:        n,
		groups:   make(map[string][]string),
		expanded: make(map[string][]NodeId),
	}

	// pass 0, collect group names
	for _, line := range graph {
		line = strings.ToLower(strings.TrimSpace(line))
		if strings.HasPrefix(line, "#") || !strings.Contains(line, "=") {
			continue
		}
		spl := strings.Split(line, "=")
		if len(spl) != 2 {
			return nil, fmt.Errorf("invalid graph: %s. group definition must contain one '='", line)
		}
		grp := strings.TrimSpace(spl[0])
		if _, err := strconv.Atoi(grp); err == nil {
			return nil, fmt.Errorf("group name must not be a node id: %s", grp)
		}
		if grp == "" {
			return nil, fmt.Errorf("invalid graph: %s. group name must not be empty", line)
		}
		if _, ok := p.groups[grp]; ok {
			return nil, fmt.Errorf("duplicate group name: %s", grp)
		}
		p.groups[grp] = nil
	}

	// pass 1, parse definitions and pairings
	pairings := make([][]string, 0)
	for _, line := range graph {
		line = strings.ToLower(strings.TrimSpace(line))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if grp, members, ok := strings.Cut(line, "="); ok {
			lst, err := p.symbols(members)
			if err != nil {
				return nil, err
			}
			p.groups[strings.TrimSpace(grp)] = lst
			continue
		}
		lst, err := p.symbols(line)
		if err != nil {
			return nil, err
		}
		if len(lst) < 2 {
			return nil, fmt.Errorf("invalid pairing, %v", lst)
		}
		pairings = append(pairings, lst)
	}

	// pass 2, expand groups
	for _, grp := range slices.Sorted(maps.Keys(p.groups)) {
		if _, err := p.expand(grp); err != nil {
			return nil, err
		}
	}

	// pass 3, rewrite pairings into links
	links := make([]Pair[NodeId, NodeId], 0)
	for _, lst := range pairings {
		for i, a := range lst {
			for _, b := range lst[i+1:] {
				xs, _ := p.expand(a)
				ys, _ := p.expand(b)
				for _, x := range xs {
					for _, y := range ys {
						if x != y {
							links = append(links, MakeSortedPair(x, y))
						}
					}
				}
			}
		}
	}
	SortPairs(links)
	return slices.Compact(links), nil
}

type graphParser struct {
	n        int
	groups   map[string][]string
	expanded map[string][]NodeId
	stack    []string
}

func (p *graphParser) nodeId(sym string) (NodeId, bool) {
	id, err := strconv.Atoi(sym)
	if err != nil || id < 0 || id >= p.n {
		return None, false
	}
	return NodeId(id), true
}

func (p *graphParser) symbols(s string) ([]string, error) {
	line := make([]string, 0)
	for _, x := range strings.Split(s, ",") {
		x = strings.TrimSpace(x)
		if x == "" {
			continue
		}
		_, isNode := p.nodeId(x)
		_, isGroup := p.groups[x]
		if !isNode && !isGroup {
			return nil, fmt.Errorf("%s is not a valid node/group", x)
		}
		line = append(line, x)
	}
	if len(line) == 0 {
		return nil, fmt.Errorf("node/group list must not be empty")
	}
	slices.Sort(line)
	return line, nil
}

func (p *graphParser) expand(sym string) ([]NodeId, error) {
	if id, ok := p.nodeId(sym); ok {
		return []NodeId{id}, nil
	}
	if ids, ok := p.expanded[sym]; ok {
		return ids, nil
	}
	if i := slices.Index(p.stack, sym); i >= 0 {
		cycle := slices.Clone(p.stack[i:])
		slices.Sort(cycle)
		return nil, fmt.Errorf("cycle detected in graph: %v", cycle)
	}
	p.stack = append(p.stack, sym)
	ids := make([]NodeId, 0)
	for _, member := range p.groups[sym] {
		sub, err := p.expand(member)
		if err != nil {
			return nil, err
		}
		ids = append(ids, sub...)
	}
	p.stack = p.stack[:len(p.stack)-1]
	slices.Sort(ids)
	ids = slices.Compact(ids)
	p.expanded[sym] = ids
	return ids, nil
}
