package ffclient

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
	"gopkg.in/ghodss/yaml.v1"

	"github.com/ffsync/go-server-sdk/subsystems"
)

const (
	// DefaultBaseURI is the configuration service used if Config.BaseURI is not set.
	DefaultBaseURI = "https://config.ff.harness.io/api/1.0"

	// DefaultPollInterval is the poll interval used if Config.PollInterval is not set.
	DefaultPollInterval = 60 * time.Second

	// MinimumPollInterval is the shortest poll interval allowed. Shorter values are raised to this one.
	MinimumPollInterval = 60 * time.Second
)

// Config holds the configuration of an Engine.
//
// All of these settings are optional except that there is no refresh at all until Environment or
// Cluster is set, either here or later through Engine.SetEnvironment and Engine.SetCluster.
type Config struct {
	// BaseURI is the root URI of the configuration service. If empty, DefaultBaseURI is used.
	BaseURI string

	// PollInterval is the delay between the end of one refresh and the start of the next. It is
	// truncated to whole seconds. If it is zero or negative, DefaultPollInterval is used; if it is less
	// than MinimumPollInterval, MinimumPollInterval is used and a warning is logged.
	PollInterval time.Duration

	// Environment is the initial environment identifier.
	Environment string

	// Cluster is the initial cluster identifier.
	Cluster string

	// Headers are added to every request sent to the configuration service, typically including the
	// authorization header.
	Headers http.Header

	// HTTP holds network settings for the default remote source.
	HTTP HTTPConfig

	// HTTPCacheSize is the number of responses kept for conditional requests. If zero, a default is used.
	HTTPCacheSize int

	// Loggers is the logging configuration. If nil, messages at Info level and above are written to
	// standard error.
	//
	//     loggers := ldlog.NewDefaultLoggers()
	//     loggers.SetMinLevel(ldlog.Debug)
	//     config.Loggers = &loggers
	Loggers *ldlog.Loggers

	// RemoteSource replaces the HTTP client for the configuration service. If nil, the engine fetches
	// from BaseURI and the HTTP settings are used.
	//
	//     // example: read flags from a local file
	//     config.RemoteSource = fffiledata.DataSource().FilePaths("./flags.yaml")
	RemoteSource subsystems.RemoteSourceFactory

	// Repository replaces the in-memory cache that refreshed data is written to. If nil, an in-memory
	// repository is created. A repository provided here is not closed by Engine.Close.
	Repository subsystems.Repository

	// Bypasses the minimum poll interval; only settable within this package, for tests.
	forcePollInterval time.Duration
}

// HTTPConfig holds network settings for the default remote source.
type HTTPConfig struct {
	// Timeout applies to connecting and to each complete request. If zero, 30 seconds is used.
	Timeout time.Duration

	// ProxyURL is the URL of an HTTP proxy. If empty, the standard proxy environment variables apply.
	ProxyURL string

	// NTLM enables NTLM authentication with the proxy. It is ignored if ProxyURL is empty.
	NTLM *NTLMProxyAuth
}

// NTLMProxyAuth holds credentials for an NTLM-authenticated proxy.
type NTLMProxyAuth struct {
	Username string
	Password string
	Domain   string
}

// configFile is the shape of a configuration file read by LoadConfigFile.
type configFile struct {
	BaseURI             string            `json:"baseUrl"`
	PollIntervalSeconds int               `json:"pollIntervalSeconds"`
	Environment         string            `json:"environment"`
	Cluster             string            `json:"cluster"`
	Headers             map[string]string `json:"headers"`
	HTTPCacheSize       int               `json:"httpCacheSize"`
	HTTP                struct {
		TimeoutSeconds int    `json:"timeoutSeconds"`
		ProxyURL       string `json:"proxyUrl"`
		NTLM           *struct {
			Username string `json:"username"`
			Password string `json:"password"`
			Domain   string `json:"domain"`
		} `json:"ntlm"`
	} `json:"http"`
}

// LoadConfigFile reads a Config from a YAML or JSON file:
//
//	baseUrl: https://config.example.com/api/1.0
//	pollIntervalSeconds: 120
//	environment: production
//	cluster: "1"
//	headers:
//	  Authorization: Bearer my-token
//	http:
//	  timeoutSeconds: 10
//	  proxyUrl: http://proxy:3128
//
// Settings that cannot be expressed in a file, such as Loggers, are left unset.
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path) // nolint:gosec // G304: reading a caller-specified file is the point
	if err != nil {
		return Config{}, fmt.Errorf("unable to read config file: %w", err)
	}
	var f configFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Config{}, fmt.Errorf("unable to parse config file %s: %w", path, err)
	}

	config := Config{
		BaseURI:       f.BaseURI,
		PollInterval:  time.Duration(f.PollIntervalSeconds) * time.Second,
		Environment:   f.Environment,
		Cluster:       f.Cluster,
		HTTPCacheSize: f.HTTPCacheSize,
		HTTP: HTTPConfig{
			Timeout:  time.Duration(f.HTTP.TimeoutSeconds) * time.Second,
			ProxyURL: f.HTTP.ProxyURL,
		},
	}
	if len(f.Headers) > 0 {
		config.Headers = make(http.Header, len(f.Headers))
		for k, v := range f.Headers {
			config.Headers.Set(k, v)
		}
	}
	if n := f.HTTP.NTLM; n != nil {
		config.HTTP.NTLM = &NTLMProxyAuth{Username: n.Username, Password: n.Password, Domain: n.Domain}
	}
	return config, nil
}

func (c Config) loggers() ldlog.Loggers {
	if c.Loggers != nil {
		return *c.Loggers
	}
	return ldlog.NewDefaultLoggers()
}

func (c Config) baseURI() (string, error) {
	if c.BaseURI == "" {
		return DefaultBaseURI, nil
	}
	u, err := url.Parse(c.BaseURI)
	if err != nil {
		return "", fmt.Errorf("invalid base URI %q: %w", c.BaseURI, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("invalid base URI %q: must be an absolute http or https URI", c.BaseURI)
	}
	return c.BaseURI, nil
}

func (c Config) pollInterval(loggers ldlog.Loggers) time.Duration {
	if c.forcePollInterval > 0 {
		return c.forcePollInterval
	}
	interval := c.PollInterval.Truncate(time.Second)
	switch {
	case interval <= 0:
		return DefaultPollInterval
	case interval < MinimumPollInterval:
		loggers.Warnf("Poll interval %s is below the minimum; using %s", interval, MinimumPollInterval)
		return MinimumPollInterval
	default:
		return interval
	}
}
