package version

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"
)

// Sobrescritos via -ldflags "-X .../pkg/version.Version=1.2.3".
var (
	Version   = devVersion
	Commit    = ""
	BuildTime = ""
)

const devVersion = "0.0.0-dev"

// ReleasesURL é o endpoint consultado por CheckLatest.
const ReleasesURL = "https://api.github.com/repos/diillson/energy-usage-dashboard-go/releases/latest"

func init() {
	if bi, ok := debug.ReadBuildInfo(); ok {
		applyBuildInfo(bi.Settings)
	}
}

// applyBuildInfo completa Commit/BuildTime (e Version, via vcs.tag) a partir dos
// dados de VCS embutidos pelo go build. Valores vindos de ldflags têm prioridade.
func applyBuildInfo(settings []debug.BuildSetting) {
	vcs := make(map[string]string, len(settings))
	for _, s := range settings {
		vcs[s.Key] = s.Value
	}

	if Commit == "" && len(vcs["vcs.revision"]) >= 7 {
		Commit = vcs["vcs.revision"][:7]
	}
	if BuildTime == "" {
		if ts, err := time.Parse(time.RFC3339, vcs["vcs.time"]); err == nil {
			BuildTime = ts.UTC().Format("2006-01-02T15:04:05Z")
		}
	}
	if Version == devVersion && vcs["vcs.tag"] != "" {
		Version = strings.TrimPrefix(vcs["vcs.tag"], "v")
		if strings.EqualFold(vcs["vcs.modified"], "true") {
			Version += "-dirty"
		}
	}
}

// FormatVersion returns e.g. "1.2.3 (commit: abc1234, built at: 2025-10-23T10:20:30Z)".
func FormatVersion() string {
	switch {
	case Commit == "" && BuildTime == "":
		return fmt.Sprintf("%s (development)", Version)
	case BuildTime == "":
		return fmt.Sprintf("%s (commit: %s)", Version, Commit)
	default:
		commit := Commit
		if commit == "" {
			commit = "development"
		}
		return fmt.Sprintf("%s (commit: %s, built at: %s)", Version, commit, BuildTime)
	}
}

// CheckLatest consulta a última release publicada. Devolve a versão encontrada
// e se ela é mais nova que current. Builds de desenvolvimento não consultam nada.
func CheckLatest(ctx context.Context, client *http.Client, url, current string) (string, bool, error) {
	if strings.HasSuffix(current, "-dev") {
		return "", false, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", false, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("error checking latest release: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("error checking latest release: status %d", resp.StatusCode)
	}

	var release struct {
		TagName string `json:"tag_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return "", false, fmt.Errorf("error decoding release: %w", err)
	}

	latest := strings.TrimPrefix(release.TagName, "v")
	return latest, newer(latest, current), nil
}

// newer compara versões x.y.z numericamente; sufixos (-dirty, -rc1) são ignorados.
func newer(latest, current string) bool {
	l, c := parts(latest), parts(current)
	for i := 0; i < 3; i++ {
		if l[i] != c[i] {
			return l[i] > c[i]
		}
	}
	return false
}

func parts(v string) [3]int {
	var out [3]int
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		v = v[:i]
	}
	for i, p := range strings.SplitN(v, ".", 3) {
		n, _ := strconv.Atoi(p)
		out[i] = n
	}
	return out
}
