package cfg

type Cfg struct {
	// Database configuration
	DBPath string

	// Ingestion configuration
	SourcesFile       string
	SchedulerInterval int
	FetchTimeout      int

	// Serving configuration
	Port        string
	BaseUrl     string
	AppTitle    string
	AppLink     string
	MaxLimit    int
	CacheMaxAge int
	TouchOn304  bool

	// Token provisioning (one-shot mode: create the token, print it, exit)
	CreateToken   string
	TokenCategory string
	TokenFeed     string
	TokenLimit    int
	TokenAdmin    bool

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
