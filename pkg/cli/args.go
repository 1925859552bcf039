package cli

import (
	"io"
	"os"
	"strings"

	"github.com/ahammadshawki8/chimera/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func workspaceFlag(dest *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "workspace",
		Aliases:     []string{"w"},
		Usage:       "Workspace ID (required)",
		Sources:     cli.EnvVars("CHIMERA_WORKSPACE"),
		Destination: dest,
	}
}

// requireArg returns the n-th positional argument
func requireArg(c *cli.Command, n int, name string) (string, error) {
	v := strings.TrimSpace(c.Args().Get(n))
	if v == "" {
		return "", goerr.Wrap(model.ErrValidation, "missing argument", goerr.V(model.FieldKey, name))
	}
	return v, nil
}

// readContent returns the literal value, or reads stdin for "-" and a file
// for "@path"
func readContent(v string) (string, error) {
	switch {
	case v == "-":
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", goerr.Wrap(err, "failed to read stdin")
		}
		return string(data), nil
	case strings.HasPrefix(v, "@"):
		path := strings.TrimPrefix(v, "@")
		// #nosec G304 - path is provided by CLI argument
		data, err := os.ReadFile(path)
		if err != nil {
			return "", goerr.Wrap(err, "failed to read content file", goerr.V("path", path))
		}
		return string(data), nil
	default:
		return v, nil
	}
}

// parseMetadata turns key=value pairs into a metadata map
func parseMetadata(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	meta := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, goerr.Wrap(model.ErrValidation, "metadata must be key=value", goerr.V("value", pair))
		}
		meta[strings.TrimSpace(k)] = v
	}
	return meta, nil
}
