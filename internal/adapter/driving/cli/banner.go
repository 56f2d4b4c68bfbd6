package cli

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/fatih/color"

	"github.com/diillson/energy-usage-dashboard-go/internal/shared/types"
	"github.com/diillson/energy-usage-dashboard-go/pkg/version"
)

// displayWelcomeBanner exibe o banner de boas-vindas com informações de versão.
func displayWelcomeBanner() {
	banner := `
     ______                               __  __
    / ____/___  ___  _________ ___  __   / / / /________ _____ ____
   / __/ / __ \/ _ \/ ___/ __ '/ / / /  / / / / ___/ __ '/ __ '/ _ \
  / /___/ / / /  __/ /  / /_/ / /_/ /  / /_/ (__  ) /_/ / /_/ /  __/
 /_____/_/ /_/\___/_/   \__, /\__, /   \____/____/\__,_/\__, /\___/
                       /____//____/                    /____/
        `
	yellow := color.New(color.FgYellow, color.Bold).SprintFunc()
	blue := color.New(color.FgBlue, color.Bold).SprintFunc()

	fmt.Println(yellow(banner))
	fmt.Println(blue(fmt.Sprintf("Energy Usage Dashboard CLI (v%s)", version.FormatVersion())))
}

// checkLatestVersion avisa quando há uma release mais nova publicada.
func checkLatestVersion(ctx context.Context, console types.ConsoleInterface) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	latest, isNewer, err := version.CheckLatest(ctx, http.DefaultClient, version.ReleasesURL, version.Version)
	if err != nil || !isNewer {
		return
	}
	console.LogWarning("A new version of Energy Usage Dashboard is available: %s", latest)
	console.LogInfo("Please update using: go install github.com/diillson/energy-usage-dashboard-go/cmd/energy-usage@latest")
}
