/*
officetext - extract plain text from Word, PowerPoint, Excel and PDF files.
*/
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/asalih/go-officetext/internal/cli"
)

// Version information (injected at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-V") {
		fmt.Printf("officetext %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)
		fmt.Printf("Go Version: %s\n", runtime.Version())
		os.Exit(0)
	}

	os.Exit(cli.Execute(Version))
}
