package scheme

import (
	"strings"

	"github.com/pkg/errors"
)

// Group namespaces the kinds registered by one component, e.g. "saga"
type Group string

func (g Group) Empty() bool {
	return len(g) == 0
}

func (g Group) String() string {
	return string(g)
}

// GroupKind is the name a message payload travels with
type GroupKind struct {
	Group Group
	Kind  string
}

func (gk GroupKind) Empty() bool {
	return gk.Group.Empty() && len(gk.Kind) == 0
}

func (gk GroupKind) String() string {
	if len(gk.Group) == 0 {
		return gk.Kind
	}
	return gk.Group.String() + "." + gk.Kind
}

// ParseGroupKind is the reverse of GroupKind.String
func ParseGroupKind(name string) (GroupKind, error) {
	idx := strings.LastIndex(name, ".")
	if idx <= 0 || idx == len(name)-1 {
		return GroupKind{}, errors.Errorf("'%s' is not a group.kind name", name)
	}

	return GroupKind{Group: Group(name[:idx]), Kind: name[idx+1:]}, nil
}
