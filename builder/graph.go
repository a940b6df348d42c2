package builder

import (
	"slices"

	"github.com/xcono/sqlfilter/sqlexpr"
)

// Association is an edge from an entity to a related table. Available marks
// tables that may be filtered on directly; junction tables leave it unset.
type Association struct {
	Table        *sqlexpr.Table
	On           sqlexpr.Expr
	Available    bool
	Associations []*Association
}

// Edge is one hop of a Branch. The root edge has no join predicate.
type Edge struct {
	Table     *sqlexpr.Table
	On        sqlexpr.Expr
	Available bool
}

// IsRoot reports whether the edge is the start of a branch.
func (e Edge) IsRoot() bool {
	return e.On.IsZero()
}

// key identifies an edge by table and join predicate. The same table may be
// reached through two different predicates; those are different edges.
func (e Edge) key() string {
	if e.IsRoot() {
		return e.Table.Name()
	}
	return e.Table.Name() + "|" + e.On.String()
}

// cloneAssociations copies the tree so that later changes to the
// caller's nodes do not reach a Definition.
func cloneAssociations(associations []*Association) []*Association {
	if associations == nil {
		return nil
	}
	out := make([]*Association, len(associations))
	for i, a := range associations {
		c := *a
		c.Associations = cloneAssociations(a.Associations)
		out[i] = &c
	}
	return out
}

// Branch is a root-to-leaf sequence of edges.
type Branch []Edge

// Tables returns the table names along the branch.
func (b Branch) Tables() []string {
	names := make([]string, len(b))
	for i, e := range b {
		names[i] = e.Table.Name()
	}
	return names
}

// Branches enumerates every root-to-leaf path of an association tree.
// An edge already discovered elsewhere in the tree is not descended into
// again, so a shared junction table appears on one branch only.
func Branches(root *sqlexpr.Table, associations []*Association) []Branch {
	start := Edge{Table: root}
	w := &walker{discovered: map[string]struct{}{start.key(): {}}}
	w.walk(Branch{start}, associations)
	return w.branches
}

type walker struct {
	discovered map[string]struct{}
	branches   []Branch
}

func (w *walker) walk(path Branch, children []*Association) {
	extended := false
	for _, a := range children {
		e := Edge{Table: a.Table, On: a.On, Available: a.Available}
		k := e.key()
		if _, seen := w.discovered[k]; seen {
			continue
		}
		w.discovered[k] = struct{}{}
		extended = true

		next := append(slices.Clone(path), e)
		w.walk(next, a.Associations)
	}

	if !extended {
		w.branches = append(w.branches, path)
	}
}

// shortestPath returns the prefix of the branch that reaches an available
// edge for target with the fewest hops. Equal lengths resolve to the branch
// declared first.
func shortestPath(branches []Branch, target string) (Branch, bool) {
	var best Branch
	for _, b := range branches {
		for i := 1; i < len(b); i++ {
			if !b[i].Available || b[i].Table.Name() != target {
				continue
			}
			if best == nil || i+1 < len(best) {
				best = slices.Clone(b[:i+1])
			}
			break
		}
	}
	return best, best != nil
}
