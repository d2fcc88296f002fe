package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/weldtech/weldwatch/internal/app"
	"github.com/weldtech/weldwatch/internal/log"
	"github.com/weldtech/weldwatch/pkg/config"
)

const version = "1.2-" + runtime.GOOS + "/" + runtime.GOARCH

func main() {
	cfgFile := flag.String("config", "config.yaml", "Path to the YAML configuration file")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("weldwatch %s\n", version)
		os.Exit(0)
	}

	// Set up logging
	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Load configuration
	filename, _ := filepath.Abs(*cfgFile)
	provider := config.NewYAMLProvider(filename)
	if _, err := provider.LoadConfig(); err != nil {
		log.Errorf("error reading config file. Did you pass the -config flag? Run with -h for help: %v", err)
		os.Exit(1)
	}

	// Create and run the application
	application := app.New(provider, log.GetSugaredLogger())
	if err := application.Run(context.Background()); err != nil {
		log.Errorf("Application error: %v", err)
		os.Exit(1)
	}
}
