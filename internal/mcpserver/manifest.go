package mcpserver

import (
	"encoding/json"
)

const (
	manifestSchema = "https://static.modelcontextprotocol.io/schemas/2025-10-17/server.schema.json"
	registryName   = "io.github.panbanda/deadhunt"
	imageName      = "ghcr.io/panbanda/deadhunt"
	repositoryURL  = "https://github.com/panbanda/deadhunt"
)

// Manifest is the registry entry (server.json) for the stdio server started
// by `deadhunt mcp`.
type Manifest struct {
	Schema      string            `json:"$schema"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Version     string            `json:"version"`
	Repository  map[string]string `json:"repository"`
	Packages    []ImagePackage    `json:"packages"`
}

// ImagePackage runs the server from the container image. The image entrypoint
// is the deadhunt binary, so the only argument is the mcp subcommand.
type ImagePackage struct {
	RegistryType         string         `json:"registryType"`
	Identifier           string         `json:"identifier"`
	PackageArguments     []Input        `json:"packageArguments"`
	EnvironmentVariables []Input        `json:"environmentVariables,omitempty"`
	Transport            map[string]any `json:"transport"`
}

// Input is a positional argument or an environment variable the client may set.
type Input struct {
	Type        string `json:"type,omitempty"`
	Name        string `json:"name,omitempty"`
	Value       string `json:"value,omitempty"`
	Description string `json:"description,omitempty"`
}

// GenerateManifest renders the registry entry for version, "0.0.0" when empty.
func GenerateManifest(version string) ([]byte, error) {
	if version == "" {
		version = "0.0.0"
	}

	return json.MarshalIndent(Manifest{
		Schema:      manifestSchema,
		Name:        registryName,
		Description: "Finds exported JS/TS components, hooks, functions and types nothing else references",
		Version:     version,
		Repository:  map[string]string{"url": repositoryURL, "source": "github"},
		Packages: []ImagePackage{{
			RegistryType:     "oci",
			Identifier:       imageName + ":" + version,
			PackageArguments: []Input{{Type: "positional", Value: "mcp"}},
			EnvironmentVariables: []Input{{
				Name:        "DEADHUNT_CONFIG",
				Description: "Path to a deadhunt config file inside the container",
			}},
			Transport: map[string]any{"type": "stdio"},
		}},
	}, "", "  ")
}
