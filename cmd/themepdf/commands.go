package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	themepdf "github.com/alnah/go-themepdf"
	"github.com/alnah/go-themepdf/internal/auth"
	"github.com/alnah/go-themepdf/internal/yamlutil"
)

// runThemes lists the theme catalog.
func runThemes(args []string, env *Environment) error {
	_, jsonOut, err := parseSimpleFlags("themes", args)
	if err != nil {
		return err
	}

	if jsonOut {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(themepdf.Themes())
	}

	tw := tabwriter.NewWriter(env.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCLASS")
	for _, t := range themepdf.Themes() {
		marker := ""
		if t.ID == themepdf.DefaultThemeID {
			marker = " (default)"
		}
		fmt.Fprintf(tw, "%s%s\t%s\t%s\n", t.ID, marker, t.Name, t.ClassName)
	}
	return tw.Flush()
}

// runConfig prints the effective configuration as YAML. Secrets are masked.
func runConfig(args []string, env *Environment) error {
	name, _, err := parseSimpleFlags("config", args)
	if err != nil {
		return err
	}

	cfg, err := resolveConfig(name, loadEnvConfig())
	if err != nil {
		return err
	}
	env.Config = cfg

	masked := *cfg
	if masked.Auth.Password != "" {
		masked.Auth.Password = "********"
	}
	if len(masked.Auth.BasicUsers) > 0 {
		users := make(map[string]string, len(masked.Auth.BasicUsers))
		for u := range masked.Auth.BasicUsers {
			users[u] = "********"
		}
		masked.Auth.BasicUsers = users
	}

	out, err := yamlutil.Marshal(&masked)
	if err != nil {
		return err
	}
	_, err = env.Stdout.Write(out)
	return err
}

// runHashPassword reads a password from the first line of stdin and prints
// its bcrypt hash for auth.passwordHash.
func runHashPassword(args []string, env *Environment) error {
	if len(args) > 0 {
		return usageErrorf("hash-password reads the password from stdin, got argument %q", args[0])
	}

	sc := bufio.NewScanner(env.Stdin)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrReadInput, err)
		}
		return fmt.Errorf("%w: empty password", ErrUsage)
	}
	password := strings.TrimRight(sc.Text(), "\r")
	if password == "" {
		return fmt.Errorf("%w: empty password", ErrUsage)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	fmt.Fprintln(env.Stdout, hash)
	return nil
}
