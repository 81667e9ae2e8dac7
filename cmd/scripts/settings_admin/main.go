package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ecopanier/backend/internal/config"
	"github.com/ecopanier/backend/internal/models"
	"github.com/ecopanier/backend/internal/services"
)

// Maintenance tool for the platform settings table. Dumps the current
// values by default; --reset restores every setting to its default.
func main() {
	reset := flag.Bool("reset", false, "reset every setting to its default value")
	yes := flag.Bool("yes", false, "skip the confirmation prompt")
	flag.Parse()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := models.InitDB(&cfg.Database); err != nil {
		fmt.Printf("Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	if err := models.AutoMigrate(); err != nil {
		fmt.Printf("Failed to migrate database: %v\n", err)
		os.Exit(1)
	}

	svc := services.NewSettingsService(models.GetDB())

	if *reset {
		if !*yes {
			fmt.Print("This resets EVERY platform setting to its default. Continue? [y/N] ")
			var answer string
			fmt.Scanln(&answer)
			if answer != "y" && answer != "Y" {
				fmt.Println("Aborted.")
				return
			}
		}
		if err := svc.ResetAll(0); err != nil {
			fmt.Printf("Reset failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("All settings reset to defaults.")
	}

	dump(svc)
}

func dump(svc *services.SettingsService) {
	for _, category := range svc.ListSettingInfos() {
		fmt.Printf("\n[%s]\n", category.CategoryName)
		for _, s := range category.Settings {
			marker := ""
			if fmt.Sprint(s.Value) != fmt.Sprint(s.DefaultValue) {
				marker = fmt.Sprintf("  (default: %v)", s.DefaultValue)
			}
			fmt.Printf("  %-36s = %v%s\n", s.Key, s.Value, marker)
		}
	}
}
