// cmd/tools/registry-updater/main.go
package main

import (
	"flag"
	"fmt"
	"os"

	repattribution "loan-intake/internal/intake/rep-attribution"
	"loan-intake/pkg/registry"
)

var registryPath string

func main() {
	addCmd := flag.NewFlagSet("add", flag.ExitOnError)
	updateCmd := flag.NewFlagSet("update", flag.ExitOnError)
	removeCmd := flag.NewFlagSet("remove", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	linksCmd := flag.NewFlagSet("links", flag.ExitOnError)

	for _, fs := range []*flag.FlagSet{addCmd, updateCmd, removeCmd, validateCmd, linksCmd} {
		fs.StringVar(&registryPath, "path", "configs/reps.yaml", "Path to rep directory file")
	}

	// Add command flags
	codeAdd := addCmd.String("code", "", "Referral code (e.g., ana)")
	nameAdd := addCmd.String("name", "", "Rep display name")
	emailAdd := addCmd.String("email", "", "Rep email, copied on applications they refer")

	// Update command flags
	codeUpdate := updateCmd.String("code", "", "Referral code to update")
	field := updateCmd.String("field", "", "Field to update (name, email)")
	value := updateCmd.String("value", "", "New value for the field")

	codeRemove := removeCmd.String("code", "", "Referral code to remove")

	// Links command flags
	baseURL := linksCmd.String("base-url", "http://localhost:8000", "Public base URL of the intake form")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "add":
		addCmd.Parse(os.Args[2:])
		if *codeAdd == "" || *nameAdd == "" || *emailAdd == "" {
			fmt.Println("Error: code, name, and email are required for add.")
			addCmd.Usage()
			os.Exit(1)
		}
		exitOnError("adding rep", edit(func(f *registry.RepFile) error {
			return f.Add(registry.RepRecord{Code: *codeAdd, Name: *nameAdd, Email: *emailAdd})
		}, true))
		fmt.Printf("Added rep: %s\n", registry.NormalizeCode(*codeAdd))

	case "update":
		updateCmd.Parse(os.Args[2:])
		if *codeUpdate == "" || *field == "" || *value == "" {
			fmt.Println("Error: code, field, and value are required for update.")
			updateCmd.Usage()
			os.Exit(1)
		}
		exitOnError("updating rep", edit(func(f *registry.RepFile) error {
			return f.Update(*codeUpdate, *field, *value)
		}, false))
		fmt.Printf("Updated rep %s, field %s to %s\n", *codeUpdate, *field, *value)

	case "remove":
		removeCmd.Parse(os.Args[2:])
		if *codeRemove == "" {
			fmt.Println("Error: code is required for remove.")
			removeCmd.Usage()
			os.Exit(1)
		}
		exitOnError("removing rep", edit(func(f *registry.RepFile) error {
			return f.Remove(*codeRemove)
		}, false))
		fmt.Printf("Removed rep: %s\n", *codeRemove)

	case "validate":
		validateCmd.Parse(os.Args[2:])
		dir, err := registry.LoadRegistry(registryPath)
		exitOnError("rep directory validation", err)
		if dir.Len() == 0 {
			exitOnError("rep directory validation", fmt.Errorf("directory contains no reps"))
		}
		fmt.Printf("Rep directory validation passed. Found %d reps.\n", dir.Len())

	case "links":
		linksCmd.Parse(os.Args[2:])
		dir, err := registry.LoadRegistry(registryPath)
		exitOnError("loading rep directory", err)
		for _, rep := range dir.All() {
			fmt.Printf("%-12s %-24s %s\n", rep.Code, rep.Name, repattribution.ReferralLink(*baseURL, rep.Code))
		}

	case "help":
		fallthrough
	default:
		help()
	}
}

// edit loads the file, applies fn and saves it. createIfMissing starts from
// an empty directory when the file does not exist yet.
func edit(fn func(*registry.RepFile) error, createIfMissing bool) error {
	file, err := registry.ReadRepFile(registryPath)
	if err != nil && !(createIfMissing && os.IsNotExist(err)) {
		return fmt.Errorf("failed to load rep directory: %w", err)
	}
	if err := fn(file); err != nil {
		return err
	}
	return registry.SaveRepFile(registryPath, file)
}

func exitOnError(action string, err error) {
	if err == nil {
		return
	}
	fmt.Printf("Error %s: %v\n", action, err)
	os.Exit(1)
}

func help() {
	fmt.Print(`
Usage: registry-updater <command> [flags]

Commands:
  add      Add a rep to the directory
  update   Update an existing rep's name or email
  remove   Remove a rep
  validate Validate the directory file
  links    Print each rep's referral link
  help     Show this help message

Examples:
  registry-updater add -code ana -name "Ana Lopez" -email ana.lopez@example.com
  registry-updater update -code ana -field email -value ana@example.com
  registry-updater links -base-url https://apply.example.com
  registry-updater validate -path configs/reps.yaml

Use 'registry-updater <command> -h' for more information about a command.
` + "\n")
}
