package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"solfavs/pkg/config"
	"solfavs/pkg/gateway"
	"solfavs/pkg/mint"
	"solfavs/pkg/models"
	"solfavs/pkg/pipeline"
	"solfavs/pkg/server"
	"solfavs/pkg/tui"
)

// Version should be set during build
var Version = "dev"

func main() {
	testFlag := flag.Bool("t", false, "Test configuration and exit")
	testLongFlag := flag.Bool("test", false, "Test configuration and exit")
	jsonFlag := flag.Bool("json", false, "Output test results as JSON")
	dryRunFlag := flag.Bool("dry-run", false, "Perform a trial run with no changes made")
	configFlag := flag.String("config", "", "Path to configuration file")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	serverFlag := flag.Bool("server", false, "Run in headless server mode")
	portFlag := flag.Int("port", 8080, "Port for API server")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("solfavs version %s\n", Version)
		os.Exit(0)
	}

	cfgInput := *configFlag
	if cfgInput == "" && len(flag.Args()) > 0 {
		cfgInput = flag.Args()[0]
	}
	path, err := config.GetConfigPath(cfgInput)
	if err != nil {
		fmt.Printf("Error determining config path: %v\n", err)
		os.Exit(1)
	}

	if *testFlag || *testLongFlag {
		testConfig(path, *jsonFlag, *dryRunFlag)
		return
	}

	prefs := config.LoadFromFile(path)

	client := gateway.NewClient(gateway.WithBatchDelay(250 * time.Millisecond))
	pl := pipeline.New(client, prefs, path)
	pl.Start(context.Background())

	srv := server.NewServer(pl)
	go func() {
		if err := srv.Start(*portFlag); err != nil {
			fmt.Printf("Server error: %v\n", err)
		}
	}()

	if *serverFlag {
		fmt.Printf("Running in server mode on port %d...\n", *portFlag)
		select {} // Keep alive
	}

	tui.Start(pl, prefs, Version)
}

// testConfig validates the preferences file, checks every tracked mint and
// optionally rewrites the file in normalized form.
func testConfig(path string, asJSON, dryRun bool) {
	var report models.TestReport
	report.ConfigPath = path
	report.ValidStructure = true
	report.DryRun = dryRun

	if !asJSON {
		fmt.Printf("Testing configuration at: %s\n", path)
	}

	prefs := config.Defaults()
	raw, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		report.StructureErrors = append(report.StructureErrors, "config file not found; defaults in effect")
		if !asJSON {
			fmt.Println("Config file not found; defaults in effect.")
		}
	case err != nil:
		report.ValidStructure = false
		report.StructureErrors = append(report.StructureErrors, err.Error())
		emitReport(report, asJSON)
		os.Exit(1)
	default:
		prefs, err = config.Load(bytes.NewReader(raw))
		if err != nil {
			report.ValidStructure = false
			report.StructureErrors = append(report.StructureErrors, err.Error())
			if !asJSON {
				fmt.Printf("Error: %v\n", err)
			}
			emitReport(report, asJSON)
			os.Exit(1)
		}
	}

	// Report on the mints as written in the file; loading already filters
	// the invalid ones out, which is exactly what this mode should surface.
	rawMints := prefs.Mints
	if len(raw) > 0 {
		var doc struct {
			Mints []string `json:"mints"`
		}
		if json.Unmarshal(raw, &doc) == nil && doc.Mints != nil {
			rawMints = doc.Mints
		}
	}

	report.MintCount = len(rawMints)
	if !asJSON {
		fmt.Printf("Found %d tracked mint(s).\n", len(rawMints))
	}

	for _, m := range rawMints {
		result := models.MintResult{
			Mint:    m,
			Valid:   mint.IsLikelyMint(m),
			OnCurve: mint.IsExactMint(m),
		}
		report.Mints = append(report.Mints, result)
		if !asJSON {
			status := "OK"
			switch {
			case !result.Valid:
				status = "INVALID"
			case !result.OnCurve:
				status = "OK (not a 32-byte pubkey)"
			}
			fmt.Printf("  %s ... %s\n", mint.Preview(m), status)
		}
	}

	// A loaded config that re-encodes differently carried legacy or
	// invalid values; rewrite it in normalized form.
	if len(raw) > 0 {
		normalized, err := json.MarshalIndent(prefs, "", "  ")
		if err == nil && !bytes.Equal(bytes.TrimSpace(normalized), bytes.TrimSpace(raw)) {
			report.ConfigUpdated = true
			if dryRun {
				if !asJSON {
					fmt.Println("Dry run enabled: Configuration NOT saved.")
				}
			} else if err := config.Save(prefs, path); err != nil {
				report.SaveError = err.Error()
				if !asJSON {
					fmt.Printf("Failed to save config: %v\n", err)
				}
			} else if !asJSON {
				fmt.Println("Configuration normalized and saved.")
			}
		}
	}

	emitReport(report, asJSON)
}

func emitReport(report models.TestReport, asJSON bool) {
	if !asJSON {
		return
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(report)
}
