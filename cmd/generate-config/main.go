package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/debemdeboas/zenblog/internal/config"
	"gopkg.in/yaml.v3"
)

var envOverrides = []struct{ name, key string }{
	{config.EnvStorageDriver, "storage.driver"},
	{config.EnvStoragePath, "storage.path"},
	{config.EnvRemoteProvider, "remote.provider"},
	{config.EnvGitHubAPI, "remote.github_api"},
	{config.EnvS3Endpoint, "remote.s3_endpoint"},
	{config.EnvS3Region, "remote.s3_region"},
	{config.EnvLogLevel, "logging.level"},
}

func header() string {
	var b strings.Builder
	b.WriteString("# zenblog configuration example\n")
	b.WriteString("# Copy this file to zenblog.yaml and change what you need.\n#\n")
	b.WriteString("# Environment overrides (also read from .env):\n")
	for _, e := range envOverrides {
		fmt.Fprintf(&b, "#   %-24s %s\n", e.name, e.key)
	}
	b.WriteString("\n")
	return b.String()
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: generate-config [output file, - for stdout]\n")
	}
	flag.Parse()

	yamlData, err := yaml.Marshal(config.Default())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating YAML: %v\n", err)
		os.Exit(1)
	}
	output := header() + string(yamlData)

	outputFile := "zenblog.example.yaml"
	if flag.NArg() > 0 {
		outputFile = flag.Arg(0)
	}

	if outputFile == "-" {
		fmt.Print(output)
		return
	}
	if err := os.WriteFile(outputFile, []byte(output), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generated example config: %s\n", outputFile)
}
