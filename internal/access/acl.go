package access

import (
	"slices"
	"strings"

	"github.com/jmerrifield20/recordledger/internal/fault"
)

// Action is a permission on a record, and also the label of an audit entry.
// Audit labels written through Ledger.Log may be any text.
type Action string

const (
	ActionRead     Action = "READ"
	ActionWrite    Action = "WRITE"
	ActionCreate   Action = "CREATE"
	ActionGrant    Action = "GRANT"
	ActionRevoke   Action = "REVOKE"
	ActionOverride Action = "OVERRIDE"
)

// actionOrder fixes the order actions are stored in within a grant.
var actionOrder = []Action{ActionCreate, ActionRead, ActionWrite, ActionGrant, ActionRevoke, ActionOverride}

// ParseAction returns the permission named by s, ignoring case.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToUpper(strings.TrimSpace(s)))
	if !slices.Contains(actionOrder, a) {
		return "", fault.Malformedf("unknown action %q", s)
	}
	return a, nil
}

func actionRank(a Action) int { return slices.Index(actionOrder, a) }

// PrincipalKind says whether a principal is a single client or a whole
// provider.
type PrincipalKind string

const (
	KindClient   PrincipalKind = "CLIENT"
	KindProvider PrincipalKind = "PROVIDER"
)

// Principal is the composite key of an ACL row.
type Principal struct {
	Kind PrincipalKind `json:"kind"`
	ID   string        `json:"id"`
}

// Client returns the CLIENT principal for id.
func Client(id string) Principal { return Principal{Kind: KindClient, ID: id} }

// Provider returns the PROVIDER principal for id.
func Provider(id string) Principal { return Principal{Kind: KindProvider, ID: id} }

func (p Principal) less(o Principal) bool {
	if p.Kind != o.Kind {
		return p.Kind < o.Kind
	}
	return p.ID < o.ID
}

// Grant is one ACL row: the actions a principal holds.
type Grant struct {
	Principal Principal `json:"principal"`
	Actions   []Action  `json:"actions"`
}

// ACL is a record's access-control list, sorted by principal. A principal
// with no actions has no row.
type ACL []Grant

func (acl ACL) find(p Principal) (int, bool) {
	return slices.BinarySearchFunc(acl, p, func(g Grant, p Principal) int {
		switch {
		case g.Principal.less(p):
			return -1
		case p.less(g.Principal):
			return 1
		}
		return 0
	})
}

// Has reports whether p holds a.
func (acl ACL) Has(p Principal, a Action) bool {
	i, ok := acl.find(p)
	return ok && slices.Contains(acl[i].Actions, a)
}

// Actions returns the actions held by p.
func (acl ACL) Actions(p Principal) []Action {
	if i, ok := acl.find(p); ok {
		return slices.Clone(acl[i].Actions)
	}
	return nil
}

// Grant gives a to p. Fails with a duplicate error when p already holds a.
func (acl *ACL) Grant(p Principal, a Action) error {
	i, ok := acl.find(p)
	if !ok {
		*acl = slices.Insert(*acl, i, Grant{Principal: p, Actions: []Action{a}})
		return nil
	}
	g := &(*acl)[i]
	if slices.Contains(g.Actions, a) {
		return fault.Duplicatef("%s %s already holds %s", p.Kind, p.ID, a)
	}
	g.Actions = append(g.Actions, a)
	slices.SortFunc(g.Actions, func(x, y Action) int { return actionRank(x) - actionRank(y) })
	return nil
}

// Revoke takes a away from p, dropping p's row once it holds nothing. Fails
// with a not-found error when p does not hold a.
func (acl *ACL) Revoke(p Principal, a Action) error {
	i, ok := acl.find(p)
	if !ok || !slices.Contains((*acl)[i].Actions, a) {
		return fault.NotFoundf("%s %s does not hold %s", p.Kind, p.ID, a)
	}
	g := &(*acl)[i]
	g.Actions = slices.DeleteFunc(g.Actions, func(x Action) bool { return x == a })
	if len(g.Actions) == 0 {
		*acl = slices.Delete(*acl, i, i+1)
	}
	return nil
}

// Creator returns the principal holding CREATE.
func (acl ACL) Creator() (Principal, bool) {
	for _, g := range acl {
		if slices.Contains(g.Actions, ActionCreate) {
			return g.Principal, true
		}
	}
	return Principal{}, false
}
