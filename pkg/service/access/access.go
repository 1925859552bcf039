package access

import (
	"context"
	"os"

	"github.com/ahammadshawki8/chimera/pkg/domain/interfaces"
	"github.com/ahammadshawki8/chimera/pkg/domain/model/auth"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
)

// Wildcard as a member grants every user access to the workspace
const Wildcard = "*"

// AllowAll grants every user access to every workspace
type AllowAll struct{}

var _ interfaces.AccessChecker = AllowAll{}

func (AllowAll) HasAccess(ctx context.Context, userID auth.UserID, workspaceID string) (bool, error) {
	return true, nil
}

// Workspace lists the members of one workspace
type Workspace struct {
	ID      string   `toml:"id"`
	Members []string `toml:"members"`
}

// Static checks membership against a fixed table
type Static struct {
	members map[string]map[auth.UserID]struct{}
}

var _ interfaces.AccessChecker = &Static{}

// NewStatic builds a checker from workspaces. Duplicate workspace entries
// merge their members.
func NewStatic(workspaces []Workspace) (*Static, error) {
	members := make(map[string]map[auth.UserID]struct{}, len(workspaces))
	for _, ws := range workspaces {
		if ws.ID == "" {
			return nil, goerr.New("workspace ID is required in membership table")
		}
		set, ok := members[ws.ID]
		if !ok {
			set = make(map[auth.UserID]struct{}, len(ws.Members))
			members[ws.ID] = set
		}
		for _, m := range ws.Members {
			if m == "" {
				continue
			}
			set[auth.UserID(m)] = struct{}{}
		}
	}
	return &Static{members: members}, nil
}

type membershipFile struct {
	Workspace []Workspace `toml:"workspace"`
}

// LoadStatic reads a TOML membership table:
//
//	[[workspace]]
//	id = "research"
//	members = ["alice", "bob"]
func LoadStatic(path string) (*Static, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from operator configuration
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read membership file", goerr.V("path", path))
	}

	var file membershipFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, goerr.Wrap(err, "failed to parse membership file", goerr.V("path", path))
	}

	checker, err := NewStatic(file.Workspace)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid membership file", goerr.V("path", path))
	}
	return checker, nil
}

func (s *Static) HasAccess(ctx context.Context, userID auth.UserID, workspaceID string) (bool, error) {
	set, ok := s.members[workspaceID]
	if !ok {
		return false, nil
	}
	if _, ok := set[Wildcard]; ok {
		return true, nil
	}
	if userID == "" {
		return false, nil
	}
	_, ok = set[userID]
	return ok, nil
}
