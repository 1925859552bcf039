package config

import (
	"github.com/ahammadshawki8/chimera/pkg/domain/interfaces"
	"github.com/ahammadshawki8/chimera/pkg/service/access"
	"github.com/ahammadshawki8/chimera/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Access holds CLI flags for workspace membership
type Access struct {
	membersFile string
}

func (x *Access) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "members-file",
			Usage:       "TOML file listing workspace members; every user may access every workspace when unset",
			Category:    "Access",
			Sources:     cli.EnvVars("CHIMERA_MEMBERS_FILE"),
			Destination: &x.membersFile,
		},
	}
}

// Configure returns the access checker for the configured membership
func (x *Access) Configure() (interfaces.AccessChecker, error) {
	if x.membersFile == "" {
		logging.Default().Warn("No members file configured, every user can access every workspace")
		return access.AllowAll{}, nil
	}

	checker, err := access.LoadStatic(x.membersFile)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load members file", goerr.V(ConfigPathKey, x.membersFile))
	}
	return checker, nil
}
