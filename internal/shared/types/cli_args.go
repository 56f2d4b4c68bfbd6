package types

// GlobalArgs são as flags persistentes compartilhadas por todos os comandos.
type GlobalArgs struct {
	ConfigFile  string
	APIBaseURL  string
	Verbose     bool
	MetricsFile string
}

// DashboardArgs represents the arguments of the dashboard command.
type DashboardArgs struct {
	Start      string
	End        string
	Period     string
	ReportName string
	ReportType []string
	Dir        string
}

// SubmitArgs represents a single manual reading.
type SubmitArgs struct {
	Date  string
	Usage float64
}

// UploadArgs represents the upload command arguments.
type UploadArgs struct {
	FilePath    string
	ContentType string
	DryRun      bool
}
